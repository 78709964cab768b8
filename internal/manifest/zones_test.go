package manifest

import "testing"

func TestMidpointBandsSingleValueSpansFullRange(t *testing.T) {
	zones := midpointBands([]int{64})
	if len(zones) != 1 || zones[0].Lo != 0 || zones[0].Hi != 127 {
		t.Fatalf("single value should span [0,127], got %+v", zones)
	}
}

func TestMidpointBandsExactFormula(t *testing.T) {
	// v = {1, 64, 127}: lo_1=0, hi_1=floor((1+64)/2)=32
	// lo_2=floor((1+64)/2)+1=33, hi_2=floor((64+127)/2)=95
	// lo_3=floor((64+127)/2)+1=96, hi_3=127
	zones := midpointBands([]int{1, 64, 127})
	want := []Zone{
		{Lo: 0, Hi: 32, Value: 1},
		{Lo: 33, Hi: 95, Value: 64},
		{Lo: 96, Hi: 127, Value: 127},
	}
	if len(zones) != len(want) {
		t.Fatalf("got %d zones, want %d", len(zones), len(want))
	}
	for i := range want {
		if zones[i] != want[i] {
			t.Errorf("zone %d = %+v, want %+v", i, zones[i], want[i])
		}
	}
}

func TestMidpointBandsAreContiguousAndGapless(t *testing.T) {
	zones := midpointBands([]int{10, 40, 41, 90, 127})
	if zones[0].Lo != 0 {
		t.Errorf("first zone must start at 0, got %d", zones[0].Lo)
	}
	if zones[len(zones)-1].Hi != 127 {
		t.Errorf("last zone must end at 127, got %d", zones[len(zones)-1].Hi)
	}
	for i := 1; i < len(zones); i++ {
		if zones[i].Lo != zones[i-1].Hi+1 {
			t.Errorf("gap/overlap between zone %d (hi=%d) and zone %d (lo=%d)", i-1, zones[i-1].Hi, i, zones[i].Lo)
		}
	}
}

func TestDistinctSorted(t *testing.T) {
	got := distinctSorted([]int{5, 1, 5, 3, 1, 9})
	want := []int{1, 3, 5, 9}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
