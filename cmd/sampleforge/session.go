package main

import (
	"fmt"

	"sampleforge/internal/capture"
	"sampleforge/internal/config"
	"sampleforge/internal/detector"
	"sampleforge/internal/device"
	"sampleforge/internal/engine"
	"sampleforge/internal/mididispatch"
	"sampleforge/internal/writer"
)

// session wires one audio capture handle, one MIDI dispatcher, and one
// engine together for the lifetime of a CLI invocation, and carries the
// output/format settings writeShot needs.
type session struct {
	cap *capture.Handle
	mid *mididispatch.Dispatcher
	eng *engine.Engine

	cfg            config.SamplingConfig
	outRoot        string
	instrument     string
	detectorPreset detector.Config
}

func newSession(sf *sessionFlags) (*session, error) {
	cfg := config.Default()
	cfg.NoteDurationMs = sf.duration
	cfg.MIDIChannel = sf.channel
	cfg.Format = config.Format(sf.format)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session configuration: %w", err)
	}

	audioDev, err := device.ResolveAudioInput(sf.audioIn)
	if err != nil {
		return nil, err
	}
	cap, err := capture.Open(audioDev, cfg.SampleRateHz, cfg.ChannelCount, 10)
	if err != nil {
		return nil, err
	}
	if err := cap.Start(); err != nil {
		return nil, err
	}

	out, err := device.OpenMIDIOutput(sf.midiOut, 0)
	if err != nil {
		cap.Stop()
		return nil, err
	}
	disp, err := mididispatch.Open(out, cfg.MIDIChannel)
	if err != nil {
		cap.Stop()
		return nil, err
	}

	preset, _ := detector.Preset("default")

	return &session{
		cap:            cap,
		mid:            disp,
		eng:            engine.New(cap, disp, cfg),
		cfg:            cfg,
		outRoot:        sf.out,
		instrument:     sf.instrument,
		detectorPreset: preset,
	}, nil
}

func (s *session) writeShot(shot engine.CapturedShot) (writer.Record, error) {
	result := detector.Detect(shot.Frames, shot.SampleRateHz, shot.ChannelCount, s.detectorPreset)
	frames := shot.Frames
	if result.Success {
		frames = trim(shot.Frames, result.StartFrame, result.EndFrame, shot.ChannelCount)
	}

	dir := writer.Dir(s.outRoot, s.instrument)
	return writer.Write(dir, s.instrument, shot.Key.Note, shot.Key.Velocity, frames, shot.SampleRateHz, shot.ChannelCount, s.cfg.Format)
}

func trim(frames []float32, start, end, channels int) []float32 {
	lo := start * channels
	hi := end * channels
	if lo < 0 {
		lo = 0
	}
	if hi > len(frames) {
		hi = len(frames)
	}
	if lo >= hi {
		return frames
	}
	return frames[lo:hi]
}

func (s *session) close() {
	s.mid.Close()
	s.cap.Stop()
}
