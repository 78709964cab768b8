package manifest

import "sort"

// Region is one emitted instrument region: a single sample file spanning a
// key zone within a velocity band.
type Region struct {
	Path            string
	LoKey, HiKey    int
	PitchKeyCenter  int
	LoVel, HiVel    int
}

// BuildRegions groups samples into velocity bands (spec.md §4.6), then
// computes a key zone for each sample within its band from the notes
// present in that band. Output is sorted by velocity then note ascending,
// matching ScanDir's ordering, so repeated runs over the same directory
// produce byte-identical region lists (spec.md §8 determinism).
func BuildRegions(samples []Sample) []Region {
	velocities := make([]int, 0, len(samples))
	for _, s := range samples {
		velocities = append(velocities, s.Velocity)
	}
	vBands := velocityBands(distinctSorted(velocities))

	vZoneFor := make(map[int]Zone, len(vBands))
	for _, z := range vBands {
		vZoneFor[z.Value] = z
	}

	byVelocity := make(map[int][]Sample)
	for _, s := range samples {
		byVelocity[s.Velocity] = append(byVelocity[s.Velocity], s)
	}

	var regions []Region
	for _, vz := range vBands {
		group := byVelocity[vz.Value]
		notes := make([]int, 0, len(group))
		for _, s := range group {
			notes = append(notes, s.Note)
		}
		kZones := keyZones(distinctSorted(notes))
		kZoneFor := make(map[int]Zone, len(kZones))
		for _, z := range kZones {
			kZoneFor[z.Value] = z
		}
		for _, s := range group {
			kz := kZoneFor[s.Note]
			regions = append(regions, Region{
				Path:           s.Path,
				LoKey:          kz.Lo,
				HiKey:          kz.Hi,
				PitchKeyCenter: s.Note,
				LoVel:          vz.Lo,
				HiVel:          vz.Hi,
			})
		}
	}

	sort.Slice(regions, func(i, j int) bool {
		if regions[i].LoVel != regions[j].LoVel {
			return regions[i].LoVel < regions[j].LoVel
		}
		return regions[i].PitchKeyCenter < regions[j].PitchKeyCenter
	})
	return regions
}
