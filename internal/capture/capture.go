// Package capture owns the audio input stream for a sampling session: a
// dedicated goroutine reads interleaved float32 frames from the device into
// an SPSC ring, publishes rolling peak/RMS levels, and exposes bounded
// windows of frames to the Sampling Engine by wall-clock interval.
//
// Grounded on client/audio.go's AudioEngine (device resolution, stream
// lifecycle, atomic level publication) and client/internal/jitter's ring
// indexing idiom, generalized as described in ring.go.
package capture

import (
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/gordonklaus/portaudio"
)

// Sentinel errors per spec.md §7.
var (
	ErrDeviceUnavailable = errors.New("capture: device unavailable")
	ErrUnsupportedFormat = errors.New("capture: unsupported sample rate or channel count")
	ErrAlreadyRunning    = errors.New("capture: already running")
	ErrAudioStalled      = errors.New("capture: callbacks stalled past take_window deadline")
)

// callbackPeriod is the nominal PortAudio callback interval used for ring
// sizing headroom and stall-deadline computation. PortAudio's blocking API
// (used here, as in client/audio.go) delivers frames in chunks of this size.
const callbackPeriod = 10 * time.Millisecond

// Handle owns an input stream across two distinct operations, open and
// start, per spec.md §4.1. All stream operations occur on a single
// dedicated goroutine spawned by Open — the stream value itself is never
// touched from any other goroutine, satisfying the non-movable-stream
// contract in spec.md §4.1 and §9.
type Handle struct {
	sampleRateHz int
	channels     int

	ring   *ring
	levels levelPublisher

	starting atomic.Bool // guards Start() against a second call
	running  atomic.Bool // true once frame delivery has actually begun
	closed   atomic.Bool // guards Stop() against a second call

	startCh     chan struct{} // Start() signals run() to begin frame delivery
	startResult chan error    // run() reports the outcome of stream.Start() back to Start()
	done        chan struct{}
	start       time.Time // monotonic anchor: frame 0 corresponds to this instant
}

// Open resolves and opens an input stream on the given, already-resolved
// device (see internal/device.ResolveAudioInput) at the given sample rate
// and channel count, sized to hold at least minBufferSeconds of audio
// (spec.md §4.1: "default ≥ 10s" for the largest configuration). Open only
// opens the stream; no frames are delivered until Start is called.
func Open(dev *portaudio.DeviceInfo, sampleRateHz, channels int, minBufferSeconds float64) (*Handle, error) {
	if dev.MaxInputChannels <= 0 {
		return nil, fmt.Errorf("%w: device %q has no input channels", ErrUnsupportedFormat, dev.Name)
	}

	if minBufferSeconds <= 0 {
		minBufferSeconds = 10
	}
	capFrames := int(minBufferSeconds * float64(sampleRateHz))

	h := &Handle{
		sampleRateHz: sampleRateHz,
		channels:     channels,
		ring:         newRing(capFrames, channels),
		startCh:      make(chan struct{}, 1),
		startResult:  make(chan error, 1),
		done:         make(chan struct{}),
	}

	openReady := make(chan error, 1)
	go h.run(dev, sampleRateHz, channels, openReady)

	if err := <-openReady; err != nil {
		return nil, err
	}
	return h, nil
}

// Start begins frame delivery on a stream already opened by Open. It fails
// with ErrAlreadyRunning if called more than once on the same Handle, per
// spec.md §4.1.
func (h *Handle) Start() error {
	if !h.starting.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	select {
	case h.startCh <- struct{}{}:
	case <-h.done:
		return ErrDeviceUnavailable
	}
	return <-h.startResult
}

// run owns the PortAudio stream for its entire lifetime on a single locked
// OS thread, per spec.md §4.1's ownership contract. It opens the stream,
// reports the outcome on ready, then waits for Start (or an early Stop)
// before entering the read loop.
func (h *Handle) run(dev *portaudio.DeviceInfo, sampleRateHz, channels int, ready chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	framesPerBuffer := int(float64(sampleRateHz) * callbackPeriod.Seconds())
	if framesPerBuffer < 1 {
		framesPerBuffer = 1
	}
	buf := make([]float32, framesPerBuffer*channels)

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: channels,
			Latency:  dev.DefaultLowInputLatency,
		},
		SampleRate:      float64(sampleRateHz),
		FramesPerBuffer: framesPerBuffer,
	}

	stream, err := portaudio.OpenStream(params, buf)
	if err != nil {
		ready <- fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
		return
	}
	ready <- nil

	select {
	case <-h.startCh:
	case <-h.done:
		stream.Close()
		return
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		h.startResult <- fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
		return
	}

	h.start = time.Now()
	h.running.Store(true)
	h.startResult <- nil

	for {
		select {
		case <-h.done:
			stream.Stop()
			stream.Close()
			return
		default:
			if err := stream.Read(); err != nil {
				// Device hot-unplug or driver error; surface via running flag
				// and stop the loop. The engine observes this as a stall.
				h.running.Store(false)
				<-h.done
				stream.Stop()
				stream.Close()
				return
			}
			h.ring.write(buf)
			h.levels.publish(buf)
		}
	}
}

// Stop halts frame delivery (or, if called before Start, cancels the
// pending open) and drains the ring. Safe to call once.
func (h *Handle) Stop() {
	if !h.closed.CompareAndSwap(false, true) {
		return
	}
	close(h.done)
	h.ring.advanceRead(h.ring.writtenFrames())
	h.levels.markStale()
}

// Levels returns the most-recently published peak/RMS readings, or the
// floor if stale.
func (h *Handle) Levels() Levels { return h.levels.read() }

// TakeWindow returns the contiguous frames whose capture wall-clock
// interval covers [startTime, endTime]. Times are correlated to frame
// indices via the monotonic anchor recorded when the stream started,
// resolving spec.md §9's open question in favor of a monotonic correlation
// rather than raw wall-clock arithmetic.
//
// If endTime is still in the future relative to frames delivered so far,
// TakeWindow waits (bounded by callbackPeriod*2+50ms past endTime) for the
// remaining frames to arrive, returning ErrAudioStalled if the deadline
// passes first.
func (h *Handle) TakeWindow(startTime, endTime time.Time) ([]float32, bool, error) {
	startFrame := h.frameIndexFor(startTime)
	endFrame := h.frameIndexFor(endTime)

	deadline := endTime.Add(2*callbackPeriod + 50*time.Millisecond)
	for {
		if h.ring.writtenFrames() >= endFrame {
			break
		}
		if time.Now().After(deadline) {
			return nil, false, ErrAudioStalled
		}
		time.Sleep(callbackPeriod / 2)
	}

	frames := h.ring.frameRange(startFrame, endFrame)
	overran := h.ring.takeOverrun()
	h.ring.advanceRead(endFrame)
	return frames, overran, nil
}

// frameIndexFor converts a wall-clock instant to an absolute frame index
// relative to stream start, using the monotonic component of time.Time
// (Go's time.Sub always uses the monotonic reading when both values carry
// one, which they do here since both derive from time.Now()).
func (h *Handle) frameIndexFor(t time.Time) uint64 {
	elapsed := t.Sub(h.start)
	if elapsed < 0 {
		return 0
	}
	return uint64(elapsed.Seconds() * float64(h.sampleRateHz))
}

// SampleRateHz and ChannelCount are informational, per spec.md §3.
func (h *Handle) SampleRateHz() int { return h.sampleRateHz }
func (h *Handle) ChannelCount() int { return h.channels }
