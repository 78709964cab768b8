package manifest

// Zone is one band of the MIDI range [0,127] assigned to a single sample
// value (a velocity or a note), per spec.md §4.6's zone-boundary formulas.
type Zone struct {
	Lo, Hi int
	Value  int
}

// velocityBands assigns a contiguous, gapless, non-overlapping velocity
// zone to each distinct velocity present in values (already sorted
// ascending), using the formula in spec.md §4.6:
//
//	lo_1 = 0
//	lo_i = floor((v_{i-1}+v_i)/2) + 1      for i > 1
//	hi_i = floor((v_i+v_{i+1})/2)          for i < k
//	hi_k = 127
//
// A single distinct value gets the full [0,127] range, matching spec.md
// §8's boundary behavior for a single-velocity layer.
func velocityBands(values []int) []Zone {
	return midpointBands(values)
}

// keyZones assigns a contiguous key range to each distinct note present in
// values (already sorted ascending), using the same midpoint formula
// applied to note numbers instead of velocities (spec.md §4.6: "analogous
// per note within a band"). A single distinct note gets the full [0,127]
// range, matching spec.md §8's single-note zone default.
func keyZones(values []int) []Zone {
	return midpointBands(values)
}

// midpointBands implements the shared lo/hi midpoint formula used for both
// velocity bands and key zones.
func midpointBands(values []int) []Zone {
	k := len(values)
	if k == 0 {
		return nil
	}
	zones := make([]Zone, k)
	for i, v := range values {
		var lo, hi int
		if i == 0 {
			lo = 0
		} else {
			lo = (values[i-1]+v)/2 + 1
		}
		if i == k-1 {
			hi = 127
		} else {
			hi = (v + values[i+1]) / 2
		}
		zones[i] = Zone{Lo: lo, Hi: hi, Value: v}
	}
	return zones
}

// distinctSorted returns the distinct values in xs, sorted ascending.
// xs is assumed small (at most 128 distinct MIDI values).
func distinctSorted(xs []int) []int {
	seen := make(map[int]bool, len(xs))
	out := make([]int, 0, len(xs))
	for _, x := range xs {
		if !seen[x] {
			seen[x] = true
			out = append(out, x)
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
