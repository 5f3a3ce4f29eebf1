package fredver

import (
	"math"
	"testing"

	"github.com/epistemix-com/epx-go/pkg/runparams"
	"github.com/epistemix-com/epx-go/pkg/synthpop"
)

func TestRescaleSeedToRunNumber(t *testing.T) {
	if got := RescaleSeedToRunNumber(0); got != 1 {
		t.Errorf("RescaleSeedToRunNumber(0) = %d, want 1", got)
	}
	if got := RescaleSeedToRunNumber(math.MaxUint64); got != 65536 {
		t.Errorf("RescaleSeedToRunNumber(max) = %d, want 65536", got)
	}
}

func TestAdaptParamsForFREDVersion(t *testing.T) {
	params := runparams.New(
		"main.fred",
		synthpop.New("US_2010.v5", []string{"Location1", "Location2"}),
		"2021-01-01", "2021-01-02",
		runparams.WithSeed(0),
	)

	unchanged, err := AdaptParamsForFREDVersion(params, "11.0.0")
	if err != nil {
		t.Fatal(err)
	}
	if !unchanged.Equal(params) {
		t.Errorf("FRED 11 adaptation changed params: %+v", unchanged)
	}

	rescaled, err := AdaptParamsForFREDVersion(params, "10.1.1")
	if err != nil {
		t.Fatal(err)
	}
	if *rescaled.Seed != 1 {
		t.Errorf("expected rescaled seed 1, got %d", *rescaled.Seed)
	}
	if *params.Seed != 0 {
		t.Error("AdaptParamsForFREDVersion mutated its input")
	}
}

func TestMajorVersionLatest(t *testing.T) {
	m, err := MajorVersion("latest")
	if err != nil {
		t.Fatal(err)
	}
	if m != LatestMajor {
		t.Errorf("MajorVersion(latest) = %d, want %d", m, LatestMajor)
	}
}
