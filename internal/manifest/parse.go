// Package manifest turns a directory of written samples back into a
// velocity/key-zoned instrument definition, emitted as SFZ and/or Decent
// Sampler dspreset (spec.md §4.6).
//
// There is no teacher or pack precedent for either output format; parse.go,
// zones.go, sfz.go, and dspreset.go are built directly from spec.md's
// formulas and exact attribute orderings, using the stdlib regexp and
// encoding/xml packages (see DESIGN.md for why no third-party XML builder
// from the pack was a fit).
package manifest

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
)

// ErrParse is returned when a filename does not match the sample naming
// convention spec.md §4.6 expects.
var ErrParse = errors.New("manifest: could not parse sample filename")

var filenamePattern = regexp.MustCompile(`^(?:.*_)?([A-G]#?)(-?\d+)_(\d{1,3})_vel(\d{1,3})\.wav$`)

// Sample is one parsed sample file: its path plus the note/velocity
// metadata recovered from its name.
type Sample struct {
	Path     string
	NoteName string
	Octave   int
	Note     int
	Velocity int
}

// ParseFileName extracts note and velocity metadata from a sample file
// name using the exact pattern spec.md §4.6 names:
// (?:.*_)?([A-G]#?)(-?\d+)_(\d{1,3})_vel(\d{1,3})\.wav
func ParseFileName(name string) (Sample, error) {
	m := filenamePattern.FindStringSubmatch(name)
	if m == nil {
		return Sample{}, fmt.Errorf("%w: %q", ErrParse, name)
	}
	octave, err := strconv.Atoi(m[2])
	if err != nil {
		return Sample{}, fmt.Errorf("%w: %q: bad octave", ErrParse, name)
	}
	note, err := strconv.Atoi(m[3])
	if err != nil || note < 0 || note > 127 {
		return Sample{}, fmt.Errorf("%w: %q: bad note number", ErrParse, name)
	}
	velocity, err := strconv.Atoi(m[4])
	if err != nil || velocity < 0 || velocity > 127 {
		return Sample{}, fmt.Errorf("%w: %q: bad velocity", ErrParse, name)
	}
	return Sample{
		NoteName: m[1],
		Octave:   octave,
		Note:     note,
		Velocity: velocity,
	}, nil
}

// ScanDir parses every *.wav file directly inside dir (non-recursive) and
// returns the successfully parsed samples sorted by velocity then note
// ascending, per spec.md §4.6's determinism requirement. Files that fail to
// parse are skipped, not fatal — generate_manifest runs against a
// directory that may contain files it didn't write.
func ScanDir(dir string) ([]Sample, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.wav"))
	if err != nil {
		return nil, fmt.Errorf("manifest: scan %s: %w", dir, err)
	}
	samples := make([]Sample, 0, len(matches))
	for _, path := range matches {
		s, err := ParseFileName(filepath.Base(path))
		if err != nil {
			continue
		}
		s.Path = path
		samples = append(samples, s)
	}
	sort.Slice(samples, func(i, j int) bool {
		if samples[i].Velocity != samples[j].Velocity {
			return samples[i].Velocity < samples[j].Velocity
		}
		return samples[i].Note < samples[j].Note
	})
	return samples, nil
}
