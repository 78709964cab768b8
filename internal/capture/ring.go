package capture

import "sync/atomic"

// ring is a single-producer/single-consumer circular buffer of interleaved
// float32 audio frames. The producer (audio callback goroutine) calls write;
// the consumer (Engine goroutine) calls frameRange, takeOverrun and
// advanceRead. Sized in frames (not
// samples) — frameStride is the channel count.
//
// Generalised from the teacher's per-sender sequence ring in
// client/internal/jitter.Buffer: that ring indexes slots by sequence number
// modulo a small power-of-two depth for reordering; this ring instead tracks
// a monotonically increasing write cursor and byte-accurate frame storage,
// since audio capture has no reordering to do — only overflow to handle.
type ring struct {
	frames      []float32 // capacity in samples = capFrames * frameStride
	frameStride int        // samples per frame (channel count)
	capFrames   uint64

	writeIdx atomic.Uint64 // next frame index to be written (monotonic)
	readIdx  atomic.Uint64 // next frame index to be read (monotonic)

	overrun atomic.Bool // set when the producer dropped frames
}

func newRing(capFrames, channels int) *ring {
	if capFrames < 1 {
		capFrames = 1
	}
	if channels < 1 {
		channels = 1
	}
	return &ring{
		frames:      make([]float32, capFrames*channels),
		frameStride: channels,
		capFrames:   uint64(capFrames),
	}
}

// write appends frames (interleaved by channel) to the ring. If the ring
// would overflow the unread region, the oldest unread frames are dropped and
// the overrun flag is set — the producer never blocks.
func (r *ring) write(frames []float32) {
	n := uint64(len(frames) / r.frameStride)
	if n == 0 {
		return
	}

	w := r.writeIdx.Load()
	read := r.readIdx.Load()
	unread := w - read

	if unread+n > r.capFrames {
		// Drop oldest unread frames so the consumer never sees a write
		// land under its read cursor.
		drop := unread + n - r.capFrames
		r.readIdx.Store(read + drop)
		r.overrun.Store(true)
	}

	for i := uint64(0); i < n; i++ {
		slot := (w + i) % r.capFrames
		copy(r.frames[slot*uint64(r.frameStride):(slot+1)*uint64(r.frameStride)], frames[i*uint64(r.frameStride):(i+1)*uint64(r.frameStride)])
	}
	r.writeIdx.Store(w + n)
}

// frameRange copies the frames in [startFrame, endFrame) (absolute,
// monotonic frame indices since stream start) into a freshly allocated
// slice. Frames already overwritten by the producer are silently skipped
// from the start of the requested range (the overrun flag will already have
// been set when that happened).
func (r *ring) frameRange(startFrame, endFrame uint64) []float32 {
	if endFrame <= startFrame {
		return nil
	}
	w := r.writeIdx.Load()
	if endFrame > w {
		endFrame = w
	}
	oldestAvailable := uint64(0)
	if w > r.capFrames {
		oldestAvailable = w - r.capFrames
	}
	if startFrame < oldestAvailable {
		startFrame = oldestAvailable
	}
	if startFrame >= endFrame {
		return nil
	}

	n := endFrame - startFrame
	out := make([]float32, n*uint64(r.frameStride))
	for i := uint64(0); i < n; i++ {
		slot := (startFrame + i) % r.capFrames
		copy(out[i*uint64(r.frameStride):(i+1)*uint64(r.frameStride)], r.frames[slot*uint64(r.frameStride):(slot+1)*uint64(r.frameStride)])
	}
	return out
}

// writtenFrames returns the total number of frames written so far.
func (r *ring) writtenFrames() uint64 { return r.writeIdx.Load() }

// takeOverrun reports and clears the overrun flag.
func (r *ring) takeOverrun() bool { return r.overrun.Swap(false) }

// advanceRead moves the read cursor forward to at least upTo, letting the
// producer reclaim that space. Called by the consumer once it has extracted
// everything it needs up to a given frame index.
func (r *ring) advanceRead(upTo uint64) {
	for {
		cur := r.readIdx.Load()
		if upTo <= cur {
			return
		}
		if r.readIdx.CompareAndSwap(cur, upTo) {
			return
		}
	}
}
