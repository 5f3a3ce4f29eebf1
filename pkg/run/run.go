// Package run owns the lifecycle of a single FRED simulation run: its
// parameters, its exclusive output directory, its submission state, and
// the status/results readers that inspect what landed on disk.
package run

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/epistemix-com/epx-go/internal/epxconfig"
	"github.com/epistemix-com/epx-go/pkg/cloud"
	"github.com/epistemix-com/epx-go/pkg/fredver"
	"github.com/epistemix-com/epx-go/pkg/fs"
	"github.com/epistemix-com/epx-go/pkg/results"
	"github.com/epistemix-com/epx-go/pkg/runparams"
	"github.com/epistemix-com/epx-go/pkg/status"
	"github.com/epistemix-com/epx-go/pkg/synthpop"
)

// ErrRunExists is returned by Execute when OutputDir already contains a
// regular file and the caller has not opted into resuming from it.
type ErrRunExists struct {
	OutputDir string
}

func (e *ErrRunExists) Error() string {
	return fmt.Sprintf("run: output directory %s already exists", e.OutputDir)
}

// ErrResultsNotReady is returned by Results when the run's status is not
// yet DONE: results are absent, not merely empty.
type ErrResultsNotReady struct {
	OutputDir string
	Status    string
}

func (e *ErrResultsNotReady) Error() string {
	return fmt.Sprintf("run: results for %s not available (status %s)", e.OutputDir, e.Status)
}

// Run owns one FRED simulation's parameters, output directory, and
// submission state.
type Run struct {
	Params      runparams.RunParameters
	FREDVersion string
	Size        string
	OutputDir   string
	RunID       *int

	cacheDir    string
	allowResume bool
}

// Option customizes Run construction.
type Option func(*runOptions)

type runOptions struct {
	allowResume bool
}

// WithResume permits Execute to reuse an already-occupied OutputDir
// instead of failing with ErrRunExists.
func WithResume() Option {
	return func(o *runOptions) { o.allowResume = true }
}

// New constructs a Run over params. Construction is pure: it performs no
// filesystem I/O and cannot fail. OutputDir is checked, and the run's
// cache file written, only when Execute is called.
func New(cfg epxconfig.Config, params runparams.RunParameters, fredVersion, size, outputDir string, opts ...Option) *Run {
	var o runOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &Run{
		Params:      params,
		FREDVersion: fredVersion,
		Size:        size,
		OutputDir:   outputDir,
		cacheDir:    cfg.CacheDir,
		allowResume: o.allowResume,
	}
}

// FromKey loads a Run previously persisted under cacheDir for outputDir.
func FromKey(cacheDir, outputDir string) (*Run, error) {
	m, err := readCache(cacheDir, outputDir)
	if err != nil {
		return nil, err
	}
	return m.toRun(cacheDir), nil
}

// Execute refuses to clobber an occupied OutputDir (unless the run was
// constructed with WithResume), writes the run's config cache, invokes
// submitter, and persists the resulting remote run ID into the cache.
func (r *Run) Execute(ctx context.Context, submitter cloud.Strategy) error {
	if !r.allowResume {
		occupied, err := outputDirHasRegularFile(r.OutputDir)
		if err != nil {
			return errors.Wrapf(err, "stat output directory %s", r.OutputDir)
		}
		if occupied {
			return &ErrRunExists{OutputDir: r.OutputDir}
		}
	}

	if err := r.writeCache(); err != nil {
		return errors.Wrap(err, "write run cache")
	}

	runID, err := submitter.Execute(ctx)
	if err != nil {
		return errors.Wrapf(err, "submit run %s", r.OutputDir)
	}
	r.RunID = &runID
	return errors.Wrap(r.writeCache(), "persist submission result")
}

// outputDirHasRegularFile reports whether dir exists and directly
// contains at least one regular file. A missing directory, an empty one,
// or one holding only subdirectories is not occupied.
func outputDirHasRegularFile(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	for _, e := range entries {
		if e.Type().IsRegular() {
			return true, nil
		}
	}
	return false, nil
}

// finder builds the FileFinder matching OutputDir's on-disk layout,
// passing the seed-rescaled run number whenever the target engine
// predates the current major version; the legacy RUN<n>/ layout needs it
// to resolve the nested directory, and the current layout ignores it.
func (r *Run) finder() (fs.FileFinder, error) {
	major, err := fredver.MajorVersion(r.FREDVersion)
	if err != nil {
		return nil, err
	}
	runNumber := 0
	if major < fredver.LatestMajor {
		if r.Params.Seed == nil {
			return nil, errors.Errorf("run: seed required to resolve legacy run-number path for %s", r.OutputDir)
		}
		runNumber = fredver.RescaleSeedToRunNumber(*r.Params.Seed)
	}
	return fs.FileFinderFactory{OutputDir: r.OutputDir, RunNumber: runNumber}.Build(), nil
}

// Status builds the RunStatus reader matching OutputDir's on-disk layout.
func (r *Run) Status() (status.RunStatus, error) {
	finder, err := r.finder()
	if err != nil {
		return nil, err
	}
	return status.RunStatusFactory{Finder: finder}.Build()
}

// Results builds the RunResults reader matching OutputDir's on-disk
// layout, but only once the run's status is DONE; otherwise results are
// absent, signaled by ErrResultsNotReady.
func (r *Run) Results() (results.RunResults, error) {
	st, err := r.Status()
	if err != nil {
		return nil, err
	}
	if st.Name() != status.Done {
		return nil, &ErrResultsNotReady{OutputDir: r.OutputDir, Status: st.Name()}
	}
	finder, err := r.finder()
	if err != nil {
		return nil, err
	}
	return results.RunResultsFactory{Finder: finder}.Build(), nil
}

// Delete removes OutputDir and its cache entry. When interactive is true,
// confirm must return true before anything is removed.
func (r *Run) Delete(interactive bool, confirm func() bool) error {
	if interactive && (confirm == nil || !confirm()) {
		return nil
	}
	if err := os.RemoveAll(r.OutputDir); err != nil {
		return errors.Wrapf(err, "remove output directory %s", r.OutputDir)
	}
	return removeCache(r.cacheDir, r.OutputDir)
}

func (r *Run) String() string { return fmt.Sprintf("Run(%s)", r.OutputDir) }

func (r *Run) GoString() string {
	return fmt.Sprintf("Run(program=%s, outputDir=%s)", r.Params.Program, r.OutputDir)
}

// Equal compares structural identity: Program and OutputDir.
func (r *Run) Equal(other *Run) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.Params.Program == other.Params.Program && r.OutputDir == other.OutputDir
}

// runModel is the JSON cache schema persisted at
// <cacheDir>/runs/<escaped-output-dir>/run.json.
type runModel struct {
	Program     string                 `json:"program"`
	SynthPop    string                 `json:"synth_pop"`
	Locations   []string               `json:"locations"`
	StartDate   string                 `json:"start_date"`
	EndDate     string                 `json:"end_date"`
	ModelParams []runparams.ModelParam `json:"model_params"`
	Seed        *uint64                `json:"seed"`
	CompileOnly bool                   `json:"compile_only"`
	FREDVersion string                 `json:"fred_version"`
	Size        string                 `json:"size"`
	OutputDir   string                 `json:"output_dir"`
	RunID       *int                   `json:"run_id,omitempty"`
}

func (r *Run) toModel() runModel {
	return runModel{
		Program:     r.Params.Program,
		SynthPop:    r.Params.SynthPop.Version,
		Locations:   r.Params.SynthPop.Locations,
		StartDate:   r.Params.StartDate,
		EndDate:     r.Params.EndDate,
		ModelParams: r.Params.ModelParams,
		Seed:        r.Params.Seed,
		CompileOnly: r.Params.CompileOnly,
		FREDVersion: r.FREDVersion,
		Size:        r.Size,
		OutputDir:   r.OutputDir,
		RunID:       r.RunID,
	}
}

func (m runModel) toRun(cacheDir string) *Run {
	return &Run{
		Params: runparams.RunParameters{
			Program:     m.Program,
			SynthPop:    synthPopFromModel(m),
			StartDate:   m.StartDate,
			EndDate:     m.EndDate,
			ModelParams: m.ModelParams,
			Seed:        m.Seed,
			CompileOnly: m.CompileOnly,
		},
		FREDVersion: m.FREDVersion,
		Size:        m.Size,
		OutputDir:   m.OutputDir,
		RunID:       m.RunID,
		cacheDir:    cacheDir,
	}
}

func synthPopFromModel(m runModel) synthpop.SynthPop {
	return synthpop.New(m.SynthPop, m.Locations)
}

// escapeOutputDir turns an output directory path into a single path
// component safe to use as a cache subdirectory name.
func escapeOutputDir(outputDir string) string {
	escaped := strings.ReplaceAll(outputDir, "/", "_")
	escaped = strings.ReplaceAll(escaped, string(filepath.Separator), "_")
	return escaped
}

func cacheDirFor(cacheDir, outputDir string) string {
	return filepath.Join(cacheDir, "runs", escapeOutputDir(outputDir))
}

func cachePathFor(cacheDir, outputDir string) string {
	return filepath.Join(cacheDirFor(cacheDir, outputDir), "run.json")
}

func (r *Run) writeCache() error {
	path := cachePathFor(r.cacheDir, r.OutputDir)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(r.toModel(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func readCache(cacheDir, outputDir string) (runModel, error) {
	path := cachePathFor(cacheDir, outputDir)
	b, err := os.ReadFile(path)
	if err != nil {
		return runModel{}, errors.Wrapf(err, "read run cache %s", path)
	}
	var m runModel
	if err := json.Unmarshal(b, &m); err != nil {
		return runModel{}, errors.Wrapf(err, "parse run cache %s", path)
	}
	return m, nil
}

func removeCache(cacheDir, outputDir string) error {
	return os.RemoveAll(cacheDirFor(cacheDir, outputDir))
}
