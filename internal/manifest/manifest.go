package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"sampleforge/internal/config"
)

// ErrEmptyDirectory is returned when a scan finds no parseable samples —
// there is nothing to emit a manifest for.
var ErrEmptyDirectory = fmt.Errorf("manifest: no parseable samples found")

// GenerateManifest scans dir for written samples, zones them, and writes
// the requested manifest format(s) alongside the samples. format "all"
// writes both an .sfz and a .dspreset from the single directory scan —
// exposed on top of the same BuildRegions pipeline WriteSFZ/WriteDSPreset
// use individually, since both outputs must stay mutually consistent.
// creator and description are optional and only affect the dspreset's
// <ui> block, per spec.md §6's generate_manifest(dir, format,
// instrument_name?, creator?, description?) contract.
func GenerateManifest(dir string, format config.Format, instrumentName, creator, description string) ([]string, error) {
	samples, err := ScanDir(dir)
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, ErrEmptyDirectory
	}
	regions := BuildRegions(samples)
	env := DefaultEnvelope()

	name := instrumentName
	if name == "" {
		name = filepath.Base(dir)
	}

	var written []string
	if format == config.FormatSFZ || format == config.FormatAll {
		path := filepath.Join(dir, name+".sfz")
		if err := os.WriteFile(path, []byte(WriteSFZ(dir, regions, env)), 0o644); err != nil {
			return written, fmt.Errorf("manifest: write %s: %w", path, err)
		}
		written = append(written, path)
	}
	if format == config.FormatDSPreset || format == config.FormatAll {
		doc, err := WriteDSPreset(dir, name, regions, env, creator, description)
		if err != nil {
			return written, err
		}
		path := filepath.Join(dir, name+".dspreset")
		if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
			return written, fmt.Errorf("manifest: write %s: %w", path, err)
		}
		written = append(written, path)
	}
	if len(written) == 0 {
		return nil, fmt.Errorf("manifest: unsupported manifest format %q", format)
	}
	return written, nil
}
