package manifest

import (
	"regexp"
	"testing"
)

func TestWriteSFZAttributeOrder(t *testing.T) {
	regions := []Region{
		{Path: "/out/C4_60_vel100.wav", LoKey: 55, HiKey: 65, PitchKeyCenter: 60, LoVel: 0, HiVel: 127},
	}
	out := WriteSFZ("/out", regions, DefaultEnvelope())

	pattern := regexp.MustCompile(`(?s)sample=.*?\nlokey=.*?\nhikey=.*?\npitch_keycenter=.*?\nlovel=.*?\nhivel=`)
	if !pattern.MatchString(out) {
		t.Fatalf("region attributes not in spec order (sample,lokey,hikey,pitch_keycenter,lovel,hivel):\n%s", out)
	}
}

func TestWriteSFZIncludesAllRegions(t *testing.T) {
	regions := []Region{
		{Path: "/out/C4_60_vel100.wav", LoKey: 0, HiKey: 63, PitchKeyCenter: 60, LoVel: 0, HiVel: 127},
		{Path: "/out/D4_62_vel100.wav", LoKey: 64, HiKey: 127, PitchKeyCenter: 62, LoVel: 0, HiVel: 127},
	}
	out := WriteSFZ("/out", regions, DefaultEnvelope())
	if count := regionCount(out); count != 2 {
		t.Fatalf("expected 2 <region> blocks, got %d", count)
	}
}

func TestWriteSFZGroupCarriesEnvelopeFromConfiguration(t *testing.T) {
	env := EnvelopeConfig{AmpegAttackSec: 0.02, AmpegReleaseSec: 1.5}
	out := WriteSFZ("/out", nil, env)

	groupPattern := regexp.MustCompile(`(?s)<group>\nampeg_attack=0\.02\nampeg_release=1\.5`)
	if !groupPattern.MatchString(out) {
		t.Fatalf("expected <group> to carry the configured ampeg_attack/ampeg_release, got:\n%s", out)
	}
}

func regionCount(sfz string) int {
	return len(regexp.MustCompile(`<region>`).FindAllString(sfz, -1))
}
