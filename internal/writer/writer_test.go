package writer

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"sampleforge/internal/config"
)

func TestNoteName(t *testing.T) {
	cases := []struct {
		note uint8
		want string
	}{
		{60, "C4"},
		{69, "A4"},
		{0, "C-1"},
		{127, "G9"},
		{61, "C#4"},
	}
	for _, tc := range cases {
		if got := NoteName(tc.note); got != tc.want {
			t.Errorf("NoteName(%d) = %q, want %q", tc.note, got, tc.want)
		}
	}
}

func TestFileName(t *testing.T) {
	if got, want := FileName("", 60, 7), "C4_60_vel007.wav"; got != want {
		t.Errorf("FileName = %q, want %q", got, want)
	}
	if got, want := FileName("Grand", 60, 100), "Grand_C4_60_vel100.wav"; got != want {
		t.Errorf("FileName = %q, want %q", got, want)
	}
}

func TestDir(t *testing.T) {
	if got, want := Dir("/out", ""), filepath.Join("/out", "Batcherbird Samples"); got != want {
		t.Errorf("Dir = %q, want %q", got, want)
	}
	if got, want := Dir("/out", "Grand"), filepath.Join("/out", "Grand"); got != want {
		t.Errorf("Dir = %q, want %q", got, want)
	}
}

func sineFrames(n, channels int, amplitude float32) []float32 {
	out := make([]float32, n*channels)
	for i := 0; i < n; i++ {
		v := amplitude * float32(math.Sin(2*math.Pi*440*float64(i)/48000))
		for c := 0; c < channels; c++ {
			out[i*channels+c] = v
		}
	}
	return out
}

func TestWriteThenVerifyRoundTrips(t *testing.T) {
	dir := t.TempDir()
	frames := sineFrames(4800, 2, 0.5)

	for _, format := range []config.Format{config.FormatWAV16, config.FormatWAV24, config.FormatWAV32F} {
		rec, err := Write(dir, "test", 60, 100, frames, 48000, 2, format)
		if err != nil {
			t.Fatalf("Write(%s): %v", format, err)
		}
		if _, err := os.Stat(rec.Path); err != nil {
			t.Fatalf("written file missing: %v", err)
		}
		if err := Verify(rec.Path); err != nil {
			t.Errorf("Verify(%s) failed for format %s: %v", rec.Path, format, err)
		}
	}
}

func TestWriteRejectsIncompatibleNamingConflict(t *testing.T) {
	dir := t.TempDir()
	frames := sineFrames(4800, 2, 0.5)

	if _, err := Write(dir, "test", 60, 100, frames, 48000, 2, config.FormatWAV16); err != nil {
		t.Fatalf("first write failed: %v", err)
	}
	if _, err := Write(dir, "test", 60, 100, frames, 44100, 2, config.FormatWAV16); err == nil {
		t.Fatalf("expected naming conflict error for mismatched sample rate")
	}
}
