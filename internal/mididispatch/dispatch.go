// Package mididispatch sends note and control messages to the outboard
// synthesizer on the Engine thread. It never yields between constructing a
// note-on and computing that note's release deadline (spec.md §4.2), and it
// holds no lock across a Send call.
//
// Grounded on other_examples' odaacabeef-midi-cable Forwarder (port
// resolution and drivers.Out.Send usage) using the gitlab.com/gomidi/midi/v2
// message constructors, which the teacher itself never imports — enrichment
// from the rest of the pack, since no complete example repo drives live
// outboard MIDI hardware.
package mididispatch

import (
	"fmt"

	midi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// ErrSendFailed wraps any error returned by the underlying driver's Send.
var ErrSendFailed = fmt.Errorf("mididispatch: send failed")

// Dispatcher owns one MIDI output port for the lifetime of a session.
type Dispatcher struct {
	out     drivers.Out
	channel uint8

	// sweepPitchBendOnPanic enables the optional pitch-bend-to-center sweep
	// during Panic. Device-specific; disabled by default per spec.md §9's
	// open question on panic pitch-bend behavior.
	sweepPitchBendOnPanic bool
}

// Open takes ownership of out (already resolved by the device layer) and
// opens it for the given 0-based MIDI channel.
func Open(out drivers.Out, channel int) (*Dispatcher, error) {
	if channel < 0 || channel > 15 {
		return nil, fmt.Errorf("mididispatch: channel %d out of range [0,15]", channel)
	}
	if err := out.Open(); err != nil {
		return nil, fmt.Errorf("mididispatch: open port %q: %w", out.String(), err)
	}
	return &Dispatcher{out: out, channel: uint8(channel)}, nil
}

// Close releases the underlying port. Safe to call once.
func (d *Dispatcher) Close() error {
	return d.out.Close()
}

// EnablePitchBendSweep turns on the optional pitch-bend-to-center sweep
// during Panic, for devices known to need it.
func (d *Dispatcher) EnablePitchBendSweep(enabled bool) {
	d.sweepPitchBendOnPanic = enabled
}

func (d *Dispatcher) send(msg midi.Message) error {
	if err := d.out.Send(msg); err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	return nil
}

// NoteOn sends a note-on at the dispatcher's channel. Per spec.md §4.2 the
// caller must compute the note's release deadline immediately after this
// call returns, without yielding the goroutine in between — Send itself
// does no scheduling or buffering that could introduce jitter.
func (d *Dispatcher) NoteOn(note, velocity uint8) error {
	return d.send(midi.NoteOn(d.channel, note, velocity))
}

// NoteOff sends a note-off at the dispatcher's channel.
func (d *Dispatcher) NoteOff(note uint8) error {
	return d.send(midi.NoteOff(d.channel, note))
}

// ProgramChange selects a program (patch) on the dispatcher's channel.
func (d *Dispatcher) ProgramChange(program uint8) error {
	return d.send(midi.ProgramChange(d.channel, program))
}

// Panic silences the device: CC120 (all sound off), CC121 (reset all
// controllers), CC123 (all notes off), CC64=0 (sustain off), an explicit
// note-off sweep across all 128 notes for synths that ignore CC123, and —
// if enabled — a pitch-bend-to-center sweep. broadcastAllChannels sends the
// sequence on every MIDI channel (0-15) instead of only the dispatcher's
// configured channel; idempotent either way.
func (d *Dispatcher) Panic(broadcastAllChannels bool) error {
	channels := []uint8{d.channel}
	if broadcastAllChannels {
		channels = make([]uint8, 16)
		for i := range channels {
			channels[i] = uint8(i)
		}
	}

	for _, ch := range channels {
		if err := d.send(midi.ControlChange(ch, 120, 0)); err != nil {
			return err
		}
		if err := d.send(midi.ControlChange(ch, 121, 0)); err != nil {
			return err
		}
		if err := d.send(midi.ControlChange(ch, 123, 0)); err != nil {
			return err
		}
		if err := d.send(midi.ControlChange(ch, 64, 0)); err != nil {
			return err
		}
		for note := 0; note < 128; note++ {
			if err := d.send(midi.NoteOff(ch, uint8(note))); err != nil {
				return err
			}
		}
		if d.sweepPitchBendOnPanic {
			if err := d.send(midi.Pitchbend(ch, 0)); err != nil {
				return err
			}
		}
	}
	return nil
}
