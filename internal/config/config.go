// Package config defines the immutable sampling configuration handed from
// the front end to the Sampling Engine at session start.
package config

import "fmt"

// Format identifies the on-disk encoding (or manifest format) requested for
// a session.
type Format string

const (
	FormatWAV16  Format = "wav16"
	FormatWAV24  Format = "wav24"
	FormatWAV32F Format = "wav32f"
	FormatSFZ    Format = "sfz"
	FormatDSPreset Format = "dspreset"
	FormatAll    Format = "all"
)

// BitDepth returns the PCM bit depth and WAV audio format code (1 = integer
// PCM, 3 = IEEE float) for an audio Format. Only meaningful for wav* formats.
func (f Format) BitDepth() (bits int, audioFormat int, ok bool) {
	switch f {
	case FormatWAV16:
		return 16, 1, true
	case FormatWAV24:
		return 24, 1, true
	case FormatWAV32F:
		return 32, 3, true
	default:
		return 0, 0, false
	}
}

// SamplingConfig is the immutable per-session configuration described in
// spec.md §3. It is constructed once by the front end and never mutated
// after a session begins.
type SamplingConfig struct {
	NoteDurationMs int // hold time of note-on, 100-10000
	ReleaseTailMs  int // capture after note-off, 0-10000, default 500
	PreRollMs      int // capture before note-on, 0-1000, default 100
	InterShotMs    int // idle between shots, 100-2000, default 200

	MIDIChannel int // 0-15

	SampleRateHz int // informational, taken from device
	ChannelCount int // informational, taken from device

	Format Format
}

// Default returns a SamplingConfig with the defaults named in spec.md §3.
func Default() SamplingConfig {
	return SamplingConfig{
		NoteDurationMs: 2000,
		ReleaseTailMs:  500,
		PreRollMs:      100,
		InterShotMs:    200,
		MIDIChannel:    0,
		SampleRateHz:   48000,
		ChannelCount:   2,
		Format:         FormatWAV24,
	}
}

// Validate rejects a SamplingConfig with any field outside the ranges in
// spec.md §3, or an unrecognised Format. Unknown option values are rejected
// at session start per spec.md §9 — never silently clamped.
func (c SamplingConfig) Validate() error {
	if c.NoteDurationMs < 100 || c.NoteDurationMs > 10000 {
		return fmt.Errorf("note_duration_ms %d out of range [100,10000]", c.NoteDurationMs)
	}
	if c.ReleaseTailMs < 0 || c.ReleaseTailMs > 10000 {
		return fmt.Errorf("release_tail_ms %d out of range [0,10000]", c.ReleaseTailMs)
	}
	if c.PreRollMs < 0 || c.PreRollMs > 1000 {
		return fmt.Errorf("pre_roll_ms %d out of range [0,1000]", c.PreRollMs)
	}
	if c.InterShotMs < 100 || c.InterShotMs > 2000 {
		return fmt.Errorf("inter_shot_ms %d out of range [100,2000]", c.InterShotMs)
	}
	if c.MIDIChannel < 0 || c.MIDIChannel > 15 {
		return fmt.Errorf("midi_channel %d out of range [0,15]", c.MIDIChannel)
	}
	if c.SampleRateHz <= 0 {
		return fmt.Errorf("sample_rate_hz must be positive, got %d", c.SampleRateHz)
	}
	if c.ChannelCount <= 0 {
		return fmt.Errorf("channel_count must be positive, got %d", c.ChannelCount)
	}
	switch c.Format {
	case FormatWAV16, FormatWAV24, FormatWAV32F:
	default:
		return fmt.Errorf("unrecognised audio format %q", c.Format)
	}
	return nil
}

// TotalCaptureMs is the nominal duration of one shot's capture window,
// before accounting for callback-period slack (spec.md §3 invariant).
func (c SamplingConfig) TotalCaptureMs() int {
	return c.PreRollMs + c.NoteDurationMs + c.ReleaseTailMs
}
