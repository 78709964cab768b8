package capture

import "testing"

func TestRingWriteAndFrameRange(t *testing.T) {
	r := newRing(10, 2)
	frames := make([]float32, 8) // 4 frames, 2 channels
	for i := range frames {
		frames[i] = float32(i)
	}
	r.write(frames)

	got := r.frameRange(0, 4)
	if len(got) != 8 {
		t.Fatalf("expected 8 samples, got %d", len(got))
	}
	for i := range frames {
		if got[i] != frames[i] {
			t.Errorf("frame mismatch at %d: got %v, want %v", i, got[i], frames[i])
		}
	}
}

func TestRingOverrunDropsOldestFrames(t *testing.T) {
	r := newRing(4, 1) // capacity 4 frames
	r.write([]float32{1, 2, 3, 4})
	if r.takeOverrun() {
		t.Fatalf("should not have overrun yet")
	}
	r.write([]float32{5, 6}) // overflows by 2, should drop frames 1,2
	if !r.takeOverrun() {
		t.Fatalf("expected overrun flag to be set")
	}
	got := r.frameRange(0, r.writtenFrames())
	want := []float32{3, 4, 5, 6}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
		}
	}
}

func TestRingAdvanceReadIsMonotonic(t *testing.T) {
	r := newRing(10, 1)
	r.write([]float32{1, 2, 3})
	r.advanceRead(2)
	r.advanceRead(1) // should not move backward
	if r.readIdx.Load() != 2 {
		t.Errorf("readIdx = %d, want 2", r.readIdx.Load())
	}
}

func TestRingFrameRangeClampsToAvailableData(t *testing.T) {
	r := newRing(10, 1)
	r.write([]float32{1, 2, 3})
	got := r.frameRange(0, 100)
	if len(got) != 3 {
		t.Fatalf("expected range clamped to 3 written frames, got %d", len(got))
	}
}
