package capture

import (
	"math"
	"sync/atomic"
)

// floorDB is the level reported for silence or a stale reading (spec.md
// §4.1: "returns most-recent published levels or -∞ if stale" — we use a
// finite floor rather than actual -Inf so downstream arithmetic stays sane,
// matching the teacher's dBFS floor conventions elsewhere in the pack).
const floorDB = -120.0

// Levels is a snapshot of the most recently published peak/RMS readings.
type Levels struct {
	PeakDB float64
	RMSDB  float64
}

// levelPublisher holds the last-computed peak/RMS as atomic float32 bit
// patterns so the audio callback goroutine can publish without locking and
// any goroutine can read without blocking it. Mirrors client/audio.go's
// AudioEngine.inputLevel atomic.Uint32 pattern, split into two fields.
type levelPublisher struct {
	peakBits atomic.Uint32
	rmsBits  atomic.Uint32
	fresh    atomic.Bool
}

func (lp *levelPublisher) publish(frame []float32) {
	peak, rms := rmsAndPeak(frame)
	lp.peakBits.Store(math.Float32bits(peak))
	lp.rmsBits.Store(math.Float32bits(rms))
	lp.fresh.Store(true)
}

func (lp *levelPublisher) read() Levels {
	if !lp.fresh.Load() {
		return Levels{PeakDB: floorDB, RMSDB: floorDB}
	}
	peak := math.Float32frombits(lp.peakBits.Load())
	rms := math.Float32frombits(lp.rmsBits.Load())
	return Levels{PeakDB: linearToDB(float64(peak)), RMSDB: linearToDB(float64(rms))}
}

// markStale marks the current reading consumed; a subsequent read
// before the next publish returns the floor. Used so a capture that has
// stopped reports floorDB instead of a frozen last value.
func (lp *levelPublisher) markStale() { lp.fresh.Store(false) }

// rmsAndPeak computes peak-of-absolute-value and RMS over an interleaved
// float32 callback buffer, generalizing client/internal/vad.RMS (which
// computes RMS alone) to also track the peak sample, as spec.md §4.1
// requires both.
func rmsAndPeak(frame []float32) (peak, rms float32) {
	if len(frame) == 0 {
		return 0, 0
	}
	var sumSq float64
	var maxAbs float32
	for _, s := range frame {
		a := s
		if a < 0 {
			a = -a
		}
		if a > maxAbs {
			maxAbs = a
		}
		sumSq += float64(s) * float64(s)
	}
	rms = float32(math.Sqrt(sumSq / float64(len(frame))))
	return maxAbs, rms
}

// linearToDB converts a linear amplitude to dBFS, floored at floorDB.
func linearToDB(linear float64) float64 {
	if linear <= 0 {
		return floorDB
	}
	db := 20 * math.Log10(linear)
	if db < floorDB {
		return floorDB
	}
	return db
}
