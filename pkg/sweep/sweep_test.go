package sweep

import (
	"errors"
	"testing"

	"github.com/epistemix-com/epx-go/pkg/runparams"
	"github.com/epistemix-com/epx-go/pkg/synthpop"
)

func TestExpandAbsentAxesContributeOnePlaceholder(t *testing.T) {
	s := ModelConfigSweep{
		Program:     "main.fred",
		Pop:         []synthpop.SynthPop{synthpop.New("v", []string{"L1"}), synthpop.New("v", []string{"L2"})},
		NReplicates: 3,
	}
	runs, err := s.Expand()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 6 {
		t.Fatalf("expected 2 pops * 3 reps = 6 runs, got %d", len(runs))
	}
}

func TestExpandFullCartesian(t *testing.T) {
	s := ModelConfigSweep{
		Program:     "main.fred",
		Pop:         []synthpop.SynthPop{synthpop.New("v", nil)},
		StartDate:   []string{"2021-01-01", "2021-02-01"},
		EndDate:     []string{"2021-03-01"},
		ModelParams: [][]runparams.ModelParam{
			{{Key: "a", Value: 1}},
			{{Key: "a", Value: 2}},
			{{Key: "a", Value: 3}},
		},
		NReplicates: 2,
	}
	n := s.Count()
	if n != 1*2*1*3*2 {
		t.Fatalf("Count() = %d, want %d", n, 12)
	}
	runs, err := s.Expand()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != n {
		t.Fatalf("Expand() produced %d runs, want %d", len(runs), n)
	}
}

func TestExpandOrderIsDeterministic(t *testing.T) {
	s := ModelConfigSweep{
		Program:   "main.fred",
		StartDate: []string{"d1", "d2"},
	}
	runs, err := s.Expand()
	if err != nil {
		t.Fatal(err)
	}
	if runs[0].StartDate != "d1" || runs[1].StartDate != "d2" {
		t.Fatalf("unexpected expansion order: %+v", runs)
	}
}

func TestExpandPreservesModelParamOrder(t *testing.T) {
	s := ModelConfigSweep{
		Program:     "main.fred",
		ModelParams: [][]runparams.ModelParam{{{Key: "z", Value: 1}, {Key: "a", Value: 2}}},
	}
	runs, err := s.Expand()
	if err != nil {
		t.Fatal(err)
	}
	got := runs[0].ModelParams
	if len(got) != 2 || got[0].Key != "z" || got[1].Key != "a" {
		t.Fatalf("expected order [z, a], got %+v", got)
	}
}

func TestExpandBroadcastSeed(t *testing.T) {
	s := ModelConfigSweep{
		Program:     "main.fred",
		NReplicates: 3,
		Seed:        uint64(99),
	}
	runs, err := s.Expand()
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range runs {
		if *r.Seed != 99 {
			t.Fatalf("expected broadcast seed 99, got %d", *r.Seed)
		}
	}
}

func TestExpandExplicitSeedSequence(t *testing.T) {
	s := ModelConfigSweep{
		Program:     "main.fred",
		NReplicates: 2,
		Seed:        []uint64{1, 2},
	}
	runs, err := s.Expand()
	if err != nil {
		t.Fatal(err)
	}
	if *runs[0].Seed != 1 || *runs[1].Seed != 2 {
		t.Fatalf("unexpected seeds: %d, %d", *runs[0].Seed, *runs[1].Seed)
	}
}

func TestExpandSeedCountMismatch(t *testing.T) {
	s := ModelConfigSweep{
		Program:     "main.fred",
		NReplicates: 3,
		Seed:        []uint64{1, 2},
	}
	_, err := s.Expand()
	var mismatch *ErrSeedCountMismatch
	if err == nil {
		t.Fatal("expected ErrSeedCountMismatch")
	}
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected *ErrSeedCountMismatch, got %T", err)
	}
	if mismatch.Got != 2 || mismatch.Want != 3 {
		t.Fatalf("unexpected mismatch counts: %+v", mismatch)
	}
}
