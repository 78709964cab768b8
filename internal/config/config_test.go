package config

import "testing"

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config should validate, got: %v", err)
	}
}

func TestValidateRejectsOutOfRangeFields(t *testing.T) {
	cases := []struct {
		name string
		mod  func(c *SamplingConfig)
	}{
		{"note duration too low", func(c *SamplingConfig) { c.NoteDurationMs = 99 }},
		{"note duration too high", func(c *SamplingConfig) { c.NoteDurationMs = 10001 }},
		{"release tail negative", func(c *SamplingConfig) { c.ReleaseTailMs = -1 }},
		{"pre roll too high", func(c *SamplingConfig) { c.PreRollMs = 1001 }},
		{"inter shot too low", func(c *SamplingConfig) { c.InterShotMs = 99 }},
		{"midi channel too high", func(c *SamplingConfig) { c.MIDIChannel = 16 }},
		{"midi channel negative", func(c *SamplingConfig) { c.MIDIChannel = -1 }},
		{"sample rate zero", func(c *SamplingConfig) { c.SampleRateHz = 0 }},
		{"channel count zero", func(c *SamplingConfig) { c.ChannelCount = 0 }},
		{"unknown format", func(c *SamplingConfig) { c.Format = "flac" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := Default()
			tc.mod(&c)
			if err := c.Validate(); err == nil {
				t.Fatalf("expected validation error for %s", tc.name)
			}
		})
	}
}

func TestBitDepth(t *testing.T) {
	cases := []struct {
		format      Format
		bits, audio int
		ok          bool
	}{
		{FormatWAV16, 16, 1, true},
		{FormatWAV24, 24, 1, true},
		{FormatWAV32F, 32, 3, true},
		{FormatSFZ, 0, 0, false},
	}
	for _, tc := range cases {
		bits, audioFormat, ok := tc.format.BitDepth()
		if bits != tc.bits || audioFormat != tc.audio || ok != tc.ok {
			t.Errorf("%s.BitDepth() = (%d,%d,%v), want (%d,%d,%v)", tc.format, bits, audioFormat, ok, tc.bits, tc.audio, tc.ok)
		}
	}
}

func TestTotalCaptureMs(t *testing.T) {
	c := SamplingConfig{PreRollMs: 100, NoteDurationMs: 2000, ReleaseTailMs: 500}
	if got, want := c.TotalCaptureMs(), 2600; got != want {
		t.Errorf("TotalCaptureMs() = %d, want %d", got, want)
	}
}
