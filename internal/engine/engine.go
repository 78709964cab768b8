// Package engine drives one sampling session: it owns the precise
// note-on/note-off timeline for each shot, iterates the note/velocity
// matrix, and reconciles capture and MIDI failures into the fatal/warning
// split spec.md §4.3 requires.
//
// Grounded on client/app.go's App struct: atomic session flags, an
// RWMutex-guarded session state accessed through a require-style accessor,
// and a single goroutine driving the session's lifecycle end to end.
package engine

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"sampleforge/internal/config"
)

// ShotKey identifies one note/velocity combination (spec.md §3).
type ShotKey struct {
	Note     uint8
	Velocity uint8
}

func (k ShotKey) String() string { return fmt.Sprintf("note=%d vel=%d", k.Note, k.Velocity) }

// CapturedShot is the raw audio and timing metadata produced by one shot,
// before detection or writing (spec.md §3).
type CapturedShot struct {
	Key          ShotKey
	Frames       []float32
	SampleRateHz int
	ChannelCount int
	TNoteOnMs    int64 // offset from capture start, milliseconds
	TNoteOffMs   int64
	Warnings     []string // non-fatal: overrun, timing skew
}

// SessionState is a point-in-time snapshot of matrix progress (spec.md §3).
type SessionState struct {
	TotalShots     int
	CompletedShots int
	CurrentKey     ShotKey
	Cancelled      bool
}

// Phase names used in ProgressEvent, matching spec.md §6's progress event
// contract.
const (
	PhasePreRoll  = "pre_roll"
	PhaseNoteOn   = "note_on"
	PhaseCapture  = "capture"
	PhaseDone     = "done"
)

// ProgressEvent is emitted by RecordRange twice per shot: with PhasePreRoll
// before the shot starts and with PhaseDone after it completes.
// PhaseNoteOn and PhaseCapture are not emitted.
type ProgressEvent struct {
	Index    int
	Total    int
	Note     uint8
	Velocity uint8
	Phase    string
}

// ShotResult pairs a completed shot with any error that stopped the
// session after it. Err is non-nil only on the final element of a
// RecordRange stream.
type ShotResult struct {
	Shot CapturedShot
	Err  error
}

// Engine ties one audio capture handle and one MIDI dispatcher together
// for the duration of a session. It is not safe for concurrent use by more
// than one caller goroutine — the front end drives it from a single
// control-flow loop, as spec.md §5 requires of the Engine thread.
type Engine struct {
	cap Capturer
	mid MIDISender
	cfg config.SamplingConfig

	mu    sync.RWMutex
	state SessionState

	cancelled atomic.Bool
}

// New binds a running capture source and an open MIDI sender into an
// Engine for the given session configuration. Both cap and mid must already
// be open; Engine does not own their lifecycle beyond the session.
func New(cap Capturer, mid MIDISender, cfg config.SamplingConfig) *Engine {
	return &Engine{cap: cap, mid: mid, cfg: cfg}
}

// State returns a snapshot of the current session progress.
func (e *Engine) State() SessionState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Cancel requests that the session stop after the in-flight shot
// completes. The current shot is never interrupted mid-note (spec.md
// §4.3); Panic is sent once the session loop observes the flag.
func (e *Engine) Cancel() {
	e.cancelled.Store(true)
}

func (e *Engine) requireNotCancelled() bool {
	return !e.cancelled.Load()
}

// PreviewNote sends a note-on, holds for durationMs, then sends a matching
// note-off, without capturing audio. Exposed directly on Engine (rather
// than only as a front-end contract) since it reuses the same device and
// dispatcher wiring as RecordShot.
func (e *Engine) PreviewNote(note, velocity uint8, durationMs int) error {
	if err := e.mid.NoteOn(note, velocity); err != nil {
		return fmt.Errorf("engine: preview note_on: %w", err)
	}
	deadline := time.Now().Add(time.Duration(durationMs) * time.Millisecond)
	sleepUntil(deadline)
	if err := e.mid.NoteOff(note); err != nil {
		return fmt.Errorf("engine: preview note_off: %w", err)
	}
	return nil
}

// Panic forwards to the MIDI dispatcher's panic sequence and is idempotent.
func (e *Engine) Panic(broadcastAllChannels bool) error {
	return e.mid.Panic(broadcastAllChannels)
}

// RecordShot runs the single-shot timeline in spec.md §4.3: pre-roll,
// note-on, hold for note_duration_ms, note-off, release tail, then a
// bounded take_window covering the whole capture span.
//
// Runs with its calling goroutine locked to one OS thread for the duration
// of the timeline, and computes the release deadline directly after NoteOn
// returns, with no sleep or channel operation in between (spec.md §4.2).
func (e *Engine) RecordShot(ctx context.Context, key ShotKey) (CapturedShot, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	tPreStart := time.Now()

	preRoll := time.Duration(e.cfg.PreRollMs) * time.Millisecond
	hold := time.Duration(e.cfg.NoteDurationMs) * time.Millisecond
	tail := time.Duration(e.cfg.ReleaseTailMs) * time.Millisecond

	sleepUntil(tPreStart.Add(preRoll))

	tNoteOn := time.Now()
	if err := e.mid.NoteOn(key.Note, key.Velocity); err != nil {
		return CapturedShot{}, fmt.Errorf("engine: %w", err)
	}
	// Deadline computed immediately after Send, with no intervening yield.
	tNoteOff := tNoteOn.Add(hold)

	sleepUntil(tNoteOff)
	if err := e.mid.NoteOff(key.Note); err != nil {
		return CapturedShot{}, fmt.Errorf("engine: %w", err)
	}

	tEndCap := tNoteOff.Add(tail)
	sleepUntil(tEndCap)

	frames, overran, err := e.cap.TakeWindow(tPreStart, tEndCap)
	var warnings []string
	if err != nil {
		return CapturedShot{}, fmt.Errorf("engine: %w", err)
	}
	if overran {
		warnings = append(warnings, "audio ring overrun during capture window")
	}

	shot := CapturedShot{
		Key:          key,
		Frames:       frames,
		SampleRateHz: e.cap.SampleRateHz(),
		ChannelCount: e.cap.ChannelCount(),
		TNoteOnMs:    tNoteOn.Sub(tPreStart).Milliseconds(),
		TNoteOffMs:   tNoteOff.Sub(tPreStart).Milliseconds(),
		Warnings:     warnings,
	}

	select {
	case <-ctx.Done():
		return shot, ctx.Err()
	default:
	}
	return shot, nil
}

// RecordRange iterates the note/velocity matrix (outer note loop, inner
// velocity loop per spec.md §4.3) and streams one ShotResult per completed
// shot on the returned channel, plus a PhasePreRoll and a PhaseDone
// ProgressEvent per shot on the events channel. Both channels are closed when the session ends,
// whether by completing the matrix, cancellation, or a fatal error.
//
// Interleaving progress events with UI updates is the front end's job
// (spec.md §9); RecordRange only produces the stream.
func (e *Engine) RecordRange(ctx context.Context, notes, velocities []uint8) (<-chan ShotResult, <-chan ProgressEvent) {
	results := make(chan ShotResult)
	events := make(chan ProgressEvent)

	total := len(notes) * len(velocities)

	go func() {
		defer close(results)
		defer close(events)

		e.mu.Lock()
		e.state = SessionState{TotalShots: total}
		e.mu.Unlock()

		index := 0
		interShot := time.Duration(e.cfg.InterShotMs) * time.Millisecond

		for _, note := range notes {
			for _, vel := range velocities {
				key := ShotKey{Note: note, Velocity: vel}

				e.mu.Lock()
				e.state.CurrentKey = key
				e.mu.Unlock()

				events <- ProgressEvent{Index: index, Total: total, Note: note, Velocity: vel, Phase: PhasePreRoll}

				shot, err := e.RecordShot(ctx, key)
				if err != nil {
					results <- ShotResult{Shot: shot, Err: fmt.Errorf("engine: shot %s failed: %w", key, err)}
					e.finalizeFatal()
					return
				}
				for _, w := range shot.Warnings {
					log.Printf("[engine] %s: %s", key, w)
				}

				events <- ProgressEvent{Index: index, Total: total, Note: note, Velocity: vel, Phase: PhaseDone}
				results <- ShotResult{Shot: shot}

				e.mu.Lock()
				e.state.CompletedShots++
				e.mu.Unlock()

				index++

				if !e.requireNotCancelled() {
					e.finalizeCancelled()
					return
				}
				if index < total {
					sleepUntil(time.Now().Add(interShot))
				}
			}
		}
	}()

	return results, events
}

// finalizeCancelled marks the session cancelled and sends Panic once, per
// spec.md §4.3's cancellation contract: the current shot always completes
// first, and only then does the engine panic the device.
func (e *Engine) finalizeCancelled() {
	e.mu.Lock()
	e.state.Cancelled = e.cancelled.Load()
	e.mu.Unlock()
	if e.cancelled.Load() {
		if err := e.mid.Panic(false); err != nil {
			log.Printf("[engine] panic on cancellation failed: %v", err)
		}
	}
}

// finalizeFatal handles a shot-level fatal error (MIDI send failure,
// ErrAudioStalled): spec.md §4.3 requires the engine to panic and tear down
// unconditionally on this path, independent of whether cancellation was ever
// requested.
func (e *Engine) finalizeFatal() {
	e.mu.Lock()
	e.state.Cancelled = e.cancelled.Load()
	e.mu.Unlock()
	if err := e.mid.Panic(false); err != nil {
		log.Printf("[engine] panic on fatal error failed: %v", err)
	}
}

// sleepUntil busy-waits lightly toward deadline using time.Sleep, matching
// the coarse scheduling granularity the teacher's own timers rely on
// elsewhere in the pack. Returns immediately if deadline has passed.
func sleepUntil(deadline time.Time) {
	d := time.Until(deadline)
	if d <= 0 {
		return
	}
	time.Sleep(d)
}
