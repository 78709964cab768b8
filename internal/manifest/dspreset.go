package manifest

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"path/filepath"
)

// dsPreset mirrors the DecentSampler .dspreset root element. Field order
// matches encoding/xml's marshal order to struct declaration order, which
// is how spec.md §4.6 specifies the ui/groups/effects child ordering. UI is
// a pointer so it can be omitted entirely when no creator/description was
// given, per spec.md §4.6 ("<ui> (if creator/description provided)").
type dsPreset struct {
	XMLName xml.Name  `xml:"DecentSampler"`
	UI      *dsUI     `xml:"ui,omitempty"`
	Groups  dsGroups  `xml:"groups"`
	Effects dsEffects `xml:"effects"`
}

// dsUI carries creator metadata plus the Attack/Release/Tone/Reverb knobs
// spec.md §4.6 describes, each bound to a group or effect parameter so a
// host actually wires the knob to something audible.
type dsUI struct {
	Width       int    `xml:"width,attr"`
	Height      int    `xml:"height,attr"`
	CreatorName string `xml:"creatorName,attr,omitempty"`
	Description string `xml:"description,attr,omitempty"`
	Tab         dsTab  `xml:"tab"`
}

type dsTab struct {
	Name  string   `xml:"name,attr"`
	Knobs []dsKnob `xml:"labeled-knob"`
}

type dsKnob struct {
	Label     string  `xml:"label,attr"`
	Type      string  `xml:"type,attr"`
	Parameter string  `xml:"parameterName,attr"`
	Min       float64 `xml:"minValue,attr"`
	Max       float64 `xml:"maxValue,attr"`
	Value     float64 `xml:"value,attr"`
}

type dsGroups struct {
	Group dsGroup `xml:"group"`
}

// dsGroup carries the default envelope (spec.md §4.6: "one <group> with
// default envelope") ahead of its samples.
type dsGroup struct {
	Name         string     `xml:"name,attr"`
	AmpegAttack  float64    `xml:"ampeg_attack,attr"`
	AmpegRelease float64    `xml:"ampeg_release,attr"`
	Samples      []dsSample `xml:"sample"`
}

// dsSample's attribute order — path, rootNote, loNote, hiNote, loVel,
// hiVel — follows spec.md §4.6 exactly.
type dsSample struct {
	Path     string `xml:"path,attr"`
	RootNote int    `xml:"rootNote,attr"`
	LoNote   int    `xml:"loNote,attr"`
	HiNote   int    `xml:"hiNote,attr"`
	LoVel    int    `xml:"loVel,attr"`
	HiVel    int    `xml:"hiVel,attr"`
}

type dsEffects struct {
	Effect []dsEffect `xml:"effect"`
}

type dsEffect struct {
	Type string `xml:"type,attr"`
}

// knobs returns the fixed Attack/Release/Tone/Reverb control set bound to
// the group's envelope and the reverb effect, seeded with sensible
// defaults drawn from env.
func knobs(env EnvelopeConfig) []dsKnob {
	return []dsKnob{
		{Label: "Attack", Type: "percent", Parameter: "ENV_ATTACK", Min: 0, Max: 5, Value: env.AmpegAttackSec},
		{Label: "Release", Type: "percent", Parameter: "ENV_RELEASE", Min: 0, Max: 10, Value: env.AmpegReleaseSec},
		{Label: "Tone", Type: "percent", Parameter: "FX_FILTER_FREQUENCY", Min: 20, Max: 20000, Value: 20000},
		{Label: "Reverb", Type: "percent", Parameter: "FX_REVERB_WET_LEVEL", Min: 0, Max: 1, Value: 0},
	}
}

// WriteDSPreset renders regions as a DecentSampler .dspreset document,
// sample paths written relative to dir. The <ui> block (and its creator
// metadata) is only emitted when creator or description is non-empty, per
// spec.md §4.6.
func WriteDSPreset(dir, instrumentName string, regions []Region, env EnvelopeConfig, creator, description string) (string, error) {
	if instrumentName == "" {
		instrumentName = "Instrument"
	}

	preset := dsPreset{
		Groups: dsGroups{
			Group: dsGroup{
				Name:         instrumentName,
				AmpegAttack:  env.AmpegAttackSec,
				AmpegRelease: env.AmpegReleaseSec,
			},
		},
		Effects: dsEffects{
			Effect: []dsEffect{{Type: "reverb"}},
		},
	}

	if creator != "" || description != "" {
		preset.UI = &dsUI{
			Width:       400,
			Height:      300,
			CreatorName: creator,
			Description: description,
			Tab:         dsTab{Name: instrumentName, Knobs: knobs(env)},
		}
	}

	for _, r := range regions {
		rel, err := filepath.Rel(dir, r.Path)
		if err != nil {
			rel = filepath.Base(r.Path)
		}
		preset.Groups.Group.Samples = append(preset.Groups.Group.Samples, dsSample{
			Path:     filepath.ToSlash(rel),
			RootNote: r.PitchKeyCenter,
			LoNote:   r.LoKey,
			HiNote:   r.HiKey,
			LoVel:    r.LoVel,
			HiVel:    r.HiVel,
		})
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(preset); err != nil {
		return "", fmt.Errorf("manifest: encode dspreset: %w", err)
	}
	return buf.String(), nil
}
