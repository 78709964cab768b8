package capture

import (
	"math"
	"testing"
)

func TestLevelPublisherReportsFloorWhenStale(t *testing.T) {
	var lp levelPublisher
	got := lp.read()
	if got.PeakDB != floorDB || got.RMSDB != floorDB {
		t.Errorf("unpublished publisher should read floor, got %+v", got)
	}
}

func TestLevelPublisherReportsFloorAfterMarkStale(t *testing.T) {
	var lp levelPublisher
	lp.publish([]float32{1, 1, 1, 1})
	if got := lp.read(); got.PeakDB == floorDB {
		t.Fatalf("expected a real reading after publish, got floor")
	}
	lp.markStale()
	if got := lp.read(); got.PeakDB != floorDB {
		t.Errorf("expected floor after markStale, got %+v", got)
	}
}

func TestRMSAndPeakOfFullScaleSquareWave(t *testing.T) {
	frame := []float32{1, -1, 1, -1}
	peak, rms := rmsAndPeak(frame)
	if peak != 1 {
		t.Errorf("peak = %v, want 1", peak)
	}
	if math.Abs(float64(rms)-1) > 1e-6 {
		t.Errorf("rms = %v, want 1", rms)
	}
}

func TestLinearToDBFloorsSilence(t *testing.T) {
	if got := linearToDB(0); got != floorDB {
		t.Errorf("linearToDB(0) = %v, want %v", got, floorDB)
	}
	if got := linearToDB(1); math.Abs(got) > 1e-9 {
		t.Errorf("linearToDB(1) = %v, want 0", got)
	}
}
