package synthpop

import "testing"

func TestString(t *testing.T) {
	s := New("US_2010.v5", []string{"Allegheny_County_PA", "Jefferson_County_PA"})
	want := "SynthPop(name=US_2010.v5, locations=['Allegheny_County_PA', 'Jefferson_County_PA'])"
	if got := s.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestEqual(t *testing.T) {
	s1 := New("US_2010.v5", []string{"Allegheny_County_PA", "Jefferson_County_PA"})
	s2 := New("US_2010.v5", []string{"Allegheny_County_PA", "Jefferson_County_PA"})
	s3 := New("US_2010.v5", []string{"Allegheny_County_PA"})

	if !s1.Equal(s2) {
		t.Error("expected s1 to equal s2")
	}
	if s1.Equal(s3) {
		t.Error("expected s1 to not equal s3")
	}
}

func TestNewCopiesLocations(t *testing.T) {
	locs := []string{"A", "B"}
	s := New("v1", locs)
	locs[0] = "mutated"
	if s.Locations[0] != "A" {
		t.Errorf("SynthPop aliased caller's slice: got %q", s.Locations[0])
	}
}
