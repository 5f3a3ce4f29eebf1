// Package job groups a sweep's expanded runs into a single unit with
// aggregate status, concurrent submission, and combined result access.
package job

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"

	"github.com/epistemix-com/epx-go/internal/epxconfig"
	"github.com/epistemix-com/epx-go/pkg/cloud"
	"github.com/epistemix-com/epx-go/pkg/run"
	"github.com/epistemix-com/epx-go/pkg/runparams"
	"github.com/epistemix-com/epx-go/pkg/status"
	"github.com/epistemix-com/epx-go/pkg/sweep"
)

// ErrJobNotFound is returned by FromKey when no cache exists for key.
type ErrJobNotFound struct {
	Key string
}

func (e *ErrJobNotFound) Error() string {
	return fmt.Sprintf("job: no cached job found for key %q", e.Key)
}

// defaultConcurrency bounds Execute's worker pool when the caller passes
// a non-positive concurrency.
const defaultConcurrency = 8

// Job owns an ordered set of runs expanded from a sweep, plus a
// job-level cache keyed by name (or a content hash of the expansion when
// no name is given).
type Job struct {
	Key  string
	Runs []*run.Run

	cacheDir string
}

// Option customizes New.
type Option func(*jobOptions)

type jobOptions struct {
	key       string
	size      string
	outputDir func(index int) string
}

// WithKey pins the job's cache key instead of deriving one from the
// expanded run set's content hash.
func WithKey(key string) Option {
	return func(o *jobOptions) { o.key = key }
}

// WithSize sets the FRED run size (e.g. "hot", "cold") applied to every
// run in the job.
func WithSize(size string) Option {
	return func(o *jobOptions) { o.size = size }
}

// WithOutputDirFunc overrides the default per-run output directory
// assignment (<cacheDir>/jobs/<key>/runs/run_<index>).
func WithOutputDirFunc(f func(index int) string) Option {
	return func(o *jobOptions) { o.outputDir = f }
}

// New expands sweep into one Run per configuration, in sweep order.
// Construction writes nothing to disk; the job cache is written by Execute.
func New(cfg epxconfig.Config, sw sweep.ModelConfigSweep, fredVersion string, opts ...Option) (*Job, error) {
	o := jobOptions{size: "hot"}
	for _, opt := range opts {
		opt(&o)
	}

	params, err := sw.Expand()
	if err != nil {
		return nil, errors.Wrap(err, "expand sweep")
	}

	key := o.key
	if key == "" {
		key = contentHash(params)
	}
	if o.outputDir == nil {
		o.outputDir = func(index int) string {
			return filepath.Join(cfg.CacheDir, "jobs", key, "runs", fmt.Sprintf("run_%d", index))
		}
	}

	runs := make([]*run.Run, 0, len(params))
	for i, p := range params {
		runs = append(runs, run.New(cfg, p, fredVersion, o.size, o.outputDir(i)))
	}

	return &Job{Key: key, Runs: runs, cacheDir: cfg.CacheDir}, nil
}

// FromKey loads a previously cached job.
func FromKey(cfg epxconfig.Config, key string) (*Job, error) {
	path := cachePathFor(cfg.CacheDir, key)
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &ErrJobNotFound{Key: key}
		}
		return nil, errors.Wrapf(err, "read job cache %s", path)
	}
	var m jobModel
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, errors.Wrapf(err, "parse job cache %s", path)
	}

	runs := make([]*run.Run, 0, len(m.OutputDirs))
	for _, dir := range m.OutputDirs {
		r, err := run.FromKey(cfg.CacheDir, dir)
		if err != nil {
			return nil, errors.Wrapf(err, "load run %s", dir)
		}
		runs = append(runs, r)
	}
	return &Job{Key: key, Runs: runs, cacheDir: cfg.CacheDir}, nil
}

// StrategyFactory builds the submission strategy for one run of the job.
type StrategyFactory func(r *run.Run) cloud.Strategy

// Execute submits every run through a bounded worker pool, collecting the
// first error encountered but letting in-flight submissions finish: runs
// are independent remote jobs, so a mid-batch failure shouldn't strand
// already-submitted runs in an ambiguous cache state.
func (j *Job) Execute(ctx context.Context, newStrategy StrategyFactory, concurrency int) error {
	if err := j.writeCache(); err != nil {
		return errors.Wrap(err, "write job cache")
	}

	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	sem := semaphore.NewWeighted(int64(concurrency))

	errs := make([]error, len(j.Runs))
	done := make(chan struct{}, len(j.Runs))

	for i, r := range j.Runs {
		if err := sem.Acquire(ctx, 1); err != nil {
			errs[i] = err
			done <- struct{}{}
			continue
		}
		go func(i int, r *run.Run) {
			defer sem.Release(1)
			defer func() { done <- struct{}{} }()
			errs[i] = r.Execute(ctx, newStrategy(r))
		}(i, r)
	}
	for range j.Runs {
		<-done
	}

	for i, err := range errs {
		if err != nil {
			return errors.Wrapf(err, "run %d", i)
		}
	}
	return nil
}

// jobStatus implements status.RunStatus for the whole job.
type jobStatus struct {
	name string
	logs []status.LogItem
}

func (s jobStatus) Name() string                    { return s.name }
func (s jobStatus) String() string                  { return s.name }
func (s jobStatus) Logs() ([]status.LogItem, error) { return s.logs, nil }

// Status aggregates every run's status: DONE only when every run is DONE,
// ERROR if any run is ERROR, RUNNING if any run is RUNNING and none is
// ERROR, otherwise NOT STARTED.
func (j *Job) Status() (status.RunStatus, error) {
	var logs []status.LogItem
	counts := map[string]int{}

	for _, r := range j.Runs {
		st, err := r.Status()
		if err != nil {
			return nil, errors.Wrapf(err, "status of run %s", r.OutputDir)
		}
		runLogs, err := st.Logs()
		if err != nil {
			return nil, errors.Wrapf(err, "logs of run %s", r.OutputDir)
		}
		logs = append(logs, runLogs...)
		counts[st.Name()]++
	}
	j.observeRunStates(counts)

	name := status.Done
	switch {
	case counts[status.Error] > 0:
		name = status.Error
	case counts[status.Running] > 0:
		name = status.Running
	case counts[status.NotStarted] > 0:
		name = status.NotStarted
	}
	return jobStatus{name: name, logs: logs}, nil
}

// Results returns the job-level result aggregator over every completed
// (DONE) run; runs that haven't finished contribute no rows.
func (j *Job) Results() (*JobResults, error) {
	return newJobResults(j.Runs)
}

// RunMetaRow is one row of the job's run-metadata table.
type RunMetaRow struct {
	RunID     int
	Program   string
	SynthPop  string
	Locations []string
	StartDate string
	EndDate   string
	Params    []runparams.ModelParam
	Seed      uint64
	Size      string
}

// RunMeta returns one row per run describing its resolved parameters.
func (j *Job) RunMeta() ([]RunMetaRow, error) {
	out := make([]RunMetaRow, 0, len(j.Runs))
	for _, r := range j.Runs {
		var runID int
		if r.RunID != nil {
			runID = *r.RunID
		}
		var seed uint64
		if r.Params.Seed != nil {
			seed = *r.Params.Seed
		}
		out = append(out, RunMetaRow{
			RunID:     runID,
			Program:   r.Params.Program,
			SynthPop:  r.Params.SynthPop.Version,
			Locations: r.Params.SynthPop.Locations,
			StartDate: r.Params.StartDate,
			EndDate:   r.Params.EndDate,
			Params:    r.Params.ModelParams,
			Seed:      seed,
			Size:      r.Size,
		})
	}
	return out, nil
}

// Delete deletes every run, then the job cache.
func (j *Job) Delete(interactive bool, confirm func() bool) error {
	if interactive && (confirm == nil || !confirm()) {
		return nil
	}
	for _, r := range j.Runs {
		if err := r.Delete(false, nil); err != nil {
			return errors.Wrapf(err, "delete run %s", r.OutputDir)
		}
	}
	return os.RemoveAll(filepath.Join(j.cacheDir, "jobs", j.Key))
}

type jobModel struct {
	Key        string   `json:"key"`
	OutputDirs []string `json:"output_dirs"`
}

func (j *Job) toModel() jobModel {
	dirs := make([]string, len(j.Runs))
	for i, r := range j.Runs {
		dirs[i] = r.OutputDir
	}
	return jobModel{Key: j.Key, OutputDirs: dirs}
}

func cachePathFor(cacheDir, key string) string {
	return filepath.Join(cacheDir, "jobs", key, "job.json")
}

func (j *Job) writeCache() error {
	path := cachePathFor(j.cacheDir, j.Key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(j.toModel(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// contentHash derives a stable job key from the expanded run set when the
// caller doesn't supply one explicitly.
func contentHash(params any) string {
	b, _ := json.Marshal(params)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])[:16]
}
