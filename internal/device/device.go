// Package device enumerates and resolves the audio and MIDI ports a
// sampling session binds to. Each session holds one audio input port and
// one MIDI output port exclusively for its lifetime (spec.md §4 Device
// Layer) — there is no process-global device registry, mirroring
// client/audio.go's per-engine device resolution rather than a shared
// singleton.
package device

import (
	"fmt"
	"sort"

	"github.com/gordonklaus/portaudio"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// AudioPort describes one enumerated PortAudio device.
type AudioPort struct {
	Index        int
	Name         string
	MaxInputs    int
	MaxOutputs   int
	DefaultRate  float64
}

// MIDIPort describes one enumerated MIDI output port.
type MIDIPort struct {
	Index int
	Name  string
}

// ListAudioInputs returns every PortAudio device exposing at least one
// input channel, ordered by device index.
func ListAudioInputs() ([]AudioPort, error) {
	ports, err := listAudio()
	if err != nil {
		return nil, err
	}
	out := ports[:0]
	for _, p := range ports {
		if p.MaxInputs > 0 {
			out = append(out, p)
		}
	}
	return out, nil
}

// ListAudioOutputs returns every PortAudio device exposing at least one
// output channel (used for preview/monitoring, not session capture),
// ordered by device index.
func ListAudioOutputs() ([]AudioPort, error) {
	ports, err := listAudio()
	if err != nil {
		return nil, err
	}
	out := ports[:0]
	for _, p := range ports {
		if p.MaxOutputs > 0 {
			out = append(out, p)
		}
	}
	return out, nil
}

func listAudio() ([]AudioPort, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("device: enumerate audio devices: %w", err)
	}
	ports := make([]AudioPort, 0, len(devices))
	for i, d := range devices {
		ports = append(ports, AudioPort{
			Index:       i,
			Name:        d.Name,
			MaxInputs:   d.MaxInputChannels,
			MaxOutputs:  d.MaxOutputChannels,
			DefaultRate: d.DefaultSampleRate,
		})
	}
	return ports, nil
}

// ListMIDIOutputs returns every available MIDI output port, ordered by
// name for stable display (gomidi's driver-assigned order is not stable
// across runs on some backends — grounded on odaacabeef-midi-cable's
// drivers.Outs() enumeration).
func ListMIDIOutputs() ([]MIDIPort, error) {
	outs, err := drivers.Outs()
	if err != nil {
		return nil, fmt.Errorf("device: enumerate MIDI outputs: %w", err)
	}
	ports := make([]MIDIPort, 0, len(outs))
	for _, o := range outs {
		ports = append(ports, MIDIPort{Index: int(o.Number()), Name: o.String()})
	}
	sort.Slice(ports, func(i, j int) bool { return ports[i].Name < ports[j].Name })
	return ports, nil
}

// OpenMIDIOutput opens the MIDI output port matching name exactly, or the
// port at the given index if name is empty. The returned drivers.Out is
// held exclusively by the caller's session for its lifetime; device does
// not retain a reference.
func OpenMIDIOutput(name string, index int) (drivers.Out, error) {
	outs, err := drivers.Outs()
	if err != nil {
		return nil, fmt.Errorf("device: enumerate MIDI outputs: %w", err)
	}
	if name != "" {
		for _, o := range outs {
			if o.String() == name {
				return o, nil
			}
		}
		return nil, fmt.Errorf("device: no MIDI output port named %q", name)
	}
	for _, o := range outs {
		if int(o.Number()) == index {
			return o, nil
		}
	}
	return nil, fmt.Errorf("device: no MIDI output port at index %d", index)
}

// ResolveAudioInput finds the input device matching name exactly, or
// returns the PortAudio default input device if name is empty.
func ResolveAudioInput(name string) (*portaudio.DeviceInfo, error) {
	if name == "" {
		return portaudio.DefaultInputDevice()
	}
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("device: enumerate audio devices: %w", err)
	}
	for _, d := range devices {
		if d.Name == name && d.MaxInputChannels > 0 {
			return d, nil
		}
	}
	return nil, fmt.Errorf("device: no audio input device named %q", name)
}
