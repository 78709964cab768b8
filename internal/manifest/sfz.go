package manifest

import (
	"fmt"
	"path/filepath"
	"strings"
)

// EnvelopeConfig carries the amplitude envelope written into the <group> of
// a generated manifest. WriteSFZ and WriteDSPreset take it as a parameter;
// GenerateManifest always passes DefaultEnvelope(), and neither
// config.SamplingConfig nor the CLI has an envelope setting.
type EnvelopeConfig struct {
	AmpegAttackSec  float64
	AmpegReleaseSec float64
}

// DefaultEnvelope returns the envelope GenerateManifest writes: a fast
// attack and a short release, appropriate for a raw multisample before a
// user dials in their own shaping.
func DefaultEnvelope() EnvelopeConfig {
	return EnvelopeConfig{AmpegAttackSec: 0.001, AmpegReleaseSec: 0.3}
}

// WriteSFZ renders regions as an SFZ instrument definition: one <control>
// header, one <group> carrying the envelope, and one <region> per sample,
// each region's attributes emitted in the exact order spec.md §4.6
// specifies — sample, lokey, hikey, pitch_keycenter, lovel, hivel. Sample
// paths are written relative to dir so the .sfz stays portable alongside
// its samples.
func WriteSFZ(dir string, regions []Region, env EnvelopeConfig) string {
	var b strings.Builder

	fmt.Fprintf(&b, "<control>\n")
	fmt.Fprintf(&b, "default_path=.\n\n")
	fmt.Fprintf(&b, "<group>\n")
	fmt.Fprintf(&b, "ampeg_attack=%g\n", env.AmpegAttackSec)
	fmt.Fprintf(&b, "ampeg_release=%g\n\n", env.AmpegReleaseSec)

	for _, r := range regions {
		rel, err := filepath.Rel(dir, r.Path)
		if err != nil {
			rel = filepath.Base(r.Path)
		}
		fmt.Fprintf(&b, "<region>\n")
		fmt.Fprintf(&b, "sample=%s\n", filepath.ToSlash(rel))
		fmt.Fprintf(&b, "lokey=%d\n", r.LoKey)
		fmt.Fprintf(&b, "hikey=%d\n", r.HiKey)
		fmt.Fprintf(&b, "pitch_keycenter=%d\n", r.PitchKeyCenter)
		fmt.Fprintf(&b, "lovel=%d\n", r.LoVel)
		fmt.Fprintf(&b, "hivel=%d\n\n", r.HiVel)
	}

	return b.String()
}
