// Package sweep expands a Cartesian product of FRED run axes into a
// deterministic ordered list of run parameters.
package sweep

import (
	"fmt"
	"math/rand"

	"github.com/epistemix-com/epx-go/pkg/runparams"
	"github.com/epistemix-com/epx-go/pkg/synthpop"
)

// ErrSeedCountMismatch is returned by Expand when an explicit seed
// sequence's length does not match the total number of expanded
// configurations.
type ErrSeedCountMismatch struct {
	Got, Want int
}

func (e *ErrSeedCountMismatch) Error() string {
	return fmt.Sprintf("sweep: seed sequence has %d entries, want %d", e.Got, e.Want)
}

// randSeed is indirected so tests can pin auto-generated seed sequences.
var randSeed = func() uint64 { return rand.Uint64() }

// ModelConfigSweep describes a Cartesian sweep over population, date range
// and model parameter axes, replicated NReplicates times per combination.
//
// An absent (nil or empty) axis contributes exactly one placeholder
// element to the product, so the sweep is never empty purely because one
// axis wasn't specified.
type ModelConfigSweep struct {
	Program     string
	Pop         []synthpop.SynthPop
	StartDate   []string
	EndDate     []string
	ModelParams [][]runparams.ModelParam
	NReplicates int

	// Seed controls how seeds are assigned to the expanded configurations:
	//   nil          - generate one fresh random seed per configuration
	//   uint64       - broadcast the same seed to every configuration
	//   []uint64     - assign positionally; must have length == Expand() count
	Seed any
}

func orPlaceholder[T any](axis []T, zero T) []T {
	if len(axis) == 0 {
		return []T{zero}
	}
	return axis
}

// Count returns the number of RunParameters Expand will produce, without
// materializing them.
func (s ModelConfigSweep) Count() int {
	n := s.NReplicates
	if n <= 0 {
		n = 1
	}
	pop := len(orPlaceholder(s.Pop, synthpop.SynthPop{}))
	start := len(orPlaceholder(s.StartDate, ""))
	end := len(orPlaceholder(s.EndDate, ""))
	params := len(orPlaceholder(s.ModelParams, []runparams.ModelParam(nil)))
	return pop * start * end * params * n
}

// Expand materializes the sweep into an ordered list of RunParameters.
// Iteration order is outermost-to-innermost: pop, start_date, end_date,
// model_params, replicate index.
func (s ModelConfigSweep) Expand() ([]runparams.RunParameters, error) {
	nReps := s.NReplicates
	if nReps <= 0 {
		nReps = 1
	}
	pops := orPlaceholder(s.Pop, synthpop.SynthPop{})
	starts := orPlaceholder(s.StartDate, "")
	ends := orPlaceholder(s.EndDate, "")
	paramSets := orPlaceholder(s.ModelParams, []runparams.ModelParam(nil))

	total := len(pops) * len(starts) * len(ends) * len(paramSets) * nReps

	var seeds []uint64
	switch seed := s.Seed.(type) {
	case nil:
		seeds = make([]uint64, total)
		for i := range seeds {
			seeds[i] = randSeed()
		}
	case uint64:
		seeds = make([]uint64, total)
		for i := range seeds {
			seeds[i] = seed
		}
	case []uint64:
		if len(seed) != total {
			return nil, &ErrSeedCountMismatch{Got: len(seed), Want: total}
		}
		seeds = seed
	default:
		return nil, fmt.Errorf("sweep: unsupported Seed type %T", s.Seed)
	}

	out := make([]runparams.RunParameters, 0, total)
	idx := 0
	for _, pop := range pops {
		for _, start := range starts {
			for _, end := range ends {
				for _, params := range paramSets {
					for rep := 0; rep < nReps; rep++ {
						seed := seeds[idx]
						out = append(out, runparams.New(
							s.Program, pop, start, end,
							runparams.WithModelParams(cloneParams(params)),
							runparams.WithSeed(seed),
						))
						idx++
					}
				}
			}
		}
	}
	return out, nil
}

func cloneParams(p []runparams.ModelParam) []runparams.ModelParam {
	if p == nil {
		return []runparams.ModelParam{}
	}
	out := make([]runparams.ModelParam, len(p))
	copy(out, p)
	return out
}
