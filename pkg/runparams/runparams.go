// Package runparams defines the fully-resolved parameters of a single FRED
// run, after sweep expansion.
package runparams

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/epistemix-com/epx-go/pkg/synthpop"
)

// randSeed is indirected so tests can pin the sequence of auto-generated
// seeds, the way the Python client patches random_seed with a side_effect
// sequence.
var randSeed = func() uint64 { return rand.Uint64() }

// ModelParam is one model-parameter override. Parameters are kept as an
// ordered slice rather than a map because the wire protocol emits one
// "-o key=value" FRED argument per entry in caller iteration order, a
// guarantee a Go map cannot make.
type ModelParam struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// RunParameters is the fully-resolved configuration of a single FRED run.
type RunParameters struct {
	Program     string
	SynthPop    synthpop.SynthPop
	StartDate   string
	EndDate     string
	ModelParams []ModelParam
	Seed        *uint64
	CompileOnly bool
}

// Option customizes New.
type Option func(*RunParameters)

// WithModelParams sets the model parameter overrides, preserving the
// order of p.
func WithModelParams(p []ModelParam) Option {
	return func(r *RunParameters) { r.ModelParams = p }
}

// WithSeed pins the seed instead of auto-generating one.
func WithSeed(seed uint64) Option {
	return func(r *RunParameters) { r.Seed = &seed }
}

// WithCompileOnly marks the run as compile-only (no execution).
func WithCompileOnly(compileOnly bool) Option {
	return func(r *RunParameters) { r.CompileOnly = compileOnly }
}

// New constructs a RunParameters, auto-generating a random seed when one
// isn't supplied via WithSeed.
func New(program string, pop synthpop.SynthPop, startDate, endDate string, opts ...Option) RunParameters {
	r := RunParameters{
		Program:     program,
		SynthPop:    pop,
		StartDate:   startDate,
		EndDate:     endDate,
		ModelParams: []ModelParam{},
	}
	for _, opt := range opts {
		opt(&r)
	}
	if r.ModelParams == nil {
		r.ModelParams = []ModelParam{}
	}
	if r.Seed == nil {
		seed := randSeed()
		r.Seed = &seed
	}
	return r
}

// Clone returns a deep copy; the returned value shares no mutable state
// with r.
func (r RunParameters) Clone() RunParameters {
	out := r
	out.SynthPop = synthpop.New(r.SynthPop.Version, r.SynthPop.Locations)
	out.ModelParams = make([]ModelParam, len(r.ModelParams))
	copy(out.ModelParams, r.ModelParams)
	if r.Seed != nil {
		seed := *r.Seed
		out.Seed = &seed
	}
	return out
}

// Equal reports whether r and other describe the same run configuration,
// including model-parameter order.
func (r RunParameters) Equal(other RunParameters) bool {
	if r.Program != other.Program || r.StartDate != other.StartDate || r.EndDate != other.EndDate {
		return false
	}
	if r.CompileOnly != other.CompileOnly {
		return false
	}
	if !r.SynthPop.Equal(other.SynthPop) {
		return false
	}
	if (r.Seed == nil) != (other.Seed == nil) {
		return false
	}
	if r.Seed != nil && *r.Seed != *other.Seed {
		return false
	}
	if len(r.ModelParams) != len(other.ModelParams) {
		return false
	}
	for i, p := range r.ModelParams {
		op := other.ModelParams[i]
		if p.Key != op.Key || fmt.Sprintf("%v", p.Value) != fmt.Sprintf("%v", op.Value) {
			return false
		}
	}
	return true
}

// String renders the legacy repr format.
func (r RunParameters) String() string {
	seed := "None"
	if r.Seed != nil {
		seed = fmt.Sprintf("%d", *r.Seed)
	}
	params := make([]string, 0, len(r.ModelParams))
	for _, p := range r.ModelParams {
		params = append(params, fmt.Sprintf("%s: %v", p.Key, p.Value))
	}
	return fmt.Sprintf(
		"RunParameters(program=%s, synth_pop=%s, start_date=%s, end_date=%s, model_params={%s}, seed=%s, compile_only=%s)",
		r.Program, r.SynthPop.String(), r.StartDate, r.EndDate, strings.Join(params, ", "), seed, pyBool(r.CompileOnly),
	)
}

// pyBool renders a bool the way Python's repr does ("True"/"False"),
// matching the legacy client's repr format this String() reproduces.
func pyBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
