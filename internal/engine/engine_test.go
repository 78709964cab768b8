package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"sampleforge/internal/config"
)

type fakeCapturer struct {
	sampleRateHz, channelCount int
	windowErr                  error
	overrun                    bool
}

func (f *fakeCapturer) TakeWindow(start, end time.Time) ([]float32, bool, error) {
	if f.windowErr != nil {
		return nil, false, f.windowErr
	}
	n := int(end.Sub(start).Seconds() * float64(f.sampleRateHz))
	return make([]float32, n*f.channelCount), f.overrun, nil
}
func (f *fakeCapturer) SampleRateHz() int { return f.sampleRateHz }
func (f *fakeCapturer) ChannelCount() int { return f.channelCount }

type fakeMIDI struct {
	noteOns, noteOffs []uint8
	panics            int
	sendErr           error
}

func (f *fakeMIDI) NoteOn(note, velocity uint8) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.noteOns = append(f.noteOns, note)
	return nil
}
func (f *fakeMIDI) NoteOff(note uint8) error {
	f.noteOffs = append(f.noteOffs, note)
	return nil
}
func (f *fakeMIDI) Panic(broadcastAllChannels bool) error {
	f.panics++
	return nil
}

func fastTestConfig() config.SamplingConfig {
	c := config.Default()
	c.PreRollMs = 1
	c.NoteDurationMs = 100
	c.ReleaseTailMs = 1
	c.InterShotMs = 100
	return c
}

func TestRecordShotProducesFramesCoveringTheWholeTimeline(t *testing.T) {
	cap := &fakeCapturer{sampleRateHz: 48000, channelCount: 2}
	mid := &fakeMIDI{}
	e := New(cap, mid, fastTestConfig())

	shot, err := e.RecordShot(context.Background(), ShotKey{Note: 60, Velocity: 100})
	if err != nil {
		t.Fatalf("RecordShot: %v", err)
	}
	if len(mid.noteOns) != 1 || mid.noteOns[0] != 60 {
		t.Errorf("expected one note-on for note 60, got %v", mid.noteOns)
	}
	if len(mid.noteOffs) != 1 || mid.noteOffs[0] != 60 {
		t.Errorf("expected one note-off for note 60, got %v", mid.noteOffs)
	}
	if shot.TNoteOffMs <= shot.TNoteOnMs {
		t.Errorf("note-off time %d should be after note-on time %d", shot.TNoteOffMs, shot.TNoteOnMs)
	}
	if len(shot.Frames) == 0 {
		t.Errorf("expected non-empty captured frames")
	}
}

func TestRecordShotPropagatesMIDIFailureAsFatal(t *testing.T) {
	cap := &fakeCapturer{sampleRateHz: 48000, channelCount: 1}
	mid := &fakeMIDI{sendErr: errors.New("device unplugged")}
	e := New(cap, mid, fastTestConfig())

	_, err := e.RecordShot(context.Background(), ShotKey{Note: 60, Velocity: 100})
	if err == nil {
		t.Fatalf("expected MIDI send failure to propagate")
	}
}

func TestRecordShotAttachesOverrunAsWarningNotFatal(t *testing.T) {
	cap := &fakeCapturer{sampleRateHz: 48000, channelCount: 1, overrun: true}
	mid := &fakeMIDI{}
	e := New(cap, mid, fastTestConfig())

	shot, err := e.RecordShot(context.Background(), ShotKey{Note: 60, Velocity: 100})
	if err != nil {
		t.Fatalf("overrun should not be fatal: %v", err)
	}
	if len(shot.Warnings) == 0 {
		t.Errorf("expected an overrun warning to be attached")
	}
}

func TestRecordRangeIteratesFullMatrix(t *testing.T) {
	cap := &fakeCapturer{sampleRateHz: 48000, channelCount: 1}
	mid := &fakeMIDI{}
	e := New(cap, mid, fastTestConfig())

	notes := []uint8{60, 62}
	velocities := []uint8{40, 100}

	results, events := e.RecordRange(context.Background(), notes, velocities)

	go func() {
		for range events {
		}
	}()

	count := 0
	for r := range results {
		if r.Err != nil {
			t.Fatalf("unexpected error: %v", r.Err)
		}
		count++
	}
	want := len(notes) * len(velocities)
	if count != want {
		t.Errorf("got %d shots, want %d", count, want)
	}
	if len(mid.noteOns) != want {
		t.Errorf("got %d note-ons, want %d", len(mid.noteOns), want)
	}
}

func TestRecordRangeFatalShotErrorAlwaysPanics(t *testing.T) {
	cap := &fakeCapturer{sampleRateHz: 48000, channelCount: 1, windowErr: errors.New("device unplugged")}
	mid := &fakeMIDI{}
	e := New(cap, mid, fastTestConfig())

	notes := []uint8{60, 62}
	velocities := []uint8{100}

	results, events := e.RecordRange(context.Background(), notes, velocities)
	go func() {
		for range events {
		}
	}()

	var errs int
	for r := range results {
		if r.Err != nil {
			errs++
		}
	}
	if errs == 0 {
		t.Fatalf("expected the fatal capture error to surface as a ShotResult error")
	}
	if mid.panics == 0 {
		t.Errorf("expected Panic to be sent on a fatal shot error even though cancellation was never requested")
	}
	if e.State().Cancelled {
		t.Errorf("a fatal shot error is not a cancellation; Cancelled should remain false")
	}
}

func TestCancelCompletesCurrentShotThenPanics(t *testing.T) {
	cap := &fakeCapturer{sampleRateHz: 48000, channelCount: 1}
	mid := &fakeMIDI{}
	e := New(cap, mid, fastTestConfig())

	notes := []uint8{60, 62, 64}
	velocities := []uint8{100}

	results, events := e.RecordRange(context.Background(), notes, velocities)
	go func() {
		for range events {
		}
	}()

	received := 0
	for range results {
		received++
		if received == 1 {
			e.Cancel()
		}
	}

	if received == len(notes) {
		t.Errorf("cancellation should stop the matrix before completing all %d shots", len(notes))
	}
	if mid.panics == 0 {
		t.Errorf("expected Panic to be sent once the session observed cancellation")
	}
	if !e.State().Cancelled {
		t.Errorf("expected session state to report cancelled")
	}
}
