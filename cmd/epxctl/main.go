package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/yaml.v3"

	"github.com/epistemix-com/epx-go/internal/epxconfig"
	"github.com/epistemix-com/epx-go/pkg/cloud"
	"github.com/epistemix-com/epx-go/pkg/job"
	"github.com/epistemix-com/epx-go/pkg/run"
	"github.com/epistemix-com/epx-go/pkg/runparams"
	"github.com/epistemix-com/epx-go/pkg/sweep"
	"github.com/epistemix-com/epx-go/pkg/synthpop"
)

var (
	submitFlags = flag.NewFlagSet("submit", flag.ExitOnError)
	submitSweep = submitFlags.String("sweep", "", "Path to a YAML sweep definition.")
	submitFRED  = submitFlags.String("fred-version", "latest", "FRED engine version to target.")
	submitKey   = submitFlags.String("key", "", "Job cache key. Derived from the sweep content when empty.")
	submitSize  = submitFlags.String("size", "hot", "FRED run size.")
	submitConc  = submitFlags.Int("concurrency", 8, "Maximum concurrent submissions.")

	statusFlags = flag.NewFlagSet("status", flag.ExitOnError)
	statusKey   = statusFlags.String("key", "", "Job cache key.")

	resultsFlags = flag.NewFlagSet("results", flag.ExitOnError)
	resultsKey   = resultsFlags.String("key", "", "Job cache key.")

	deleteFlags = flag.NewFlagSet("delete", flag.ExitOnError)
	deleteKey   = deleteFlags.String("key", "", "Job cache key.")
	deleteYes   = deleteFlags.Bool("yes", false, "Delete without an interactive confirmation prompt.")

	metricsFlags = flag.NewFlagSet("serve-metrics", flag.ExitOnError)
	metricsAddr  = metricsFlags.String("addr", ":9201", "Address to serve /metrics on.")
)

// sweepFile is the on-disk YAML shape for --sweep.
type sweepFile struct {
	Program     string          `yaml:"program"`
	Pop         []synthPopFile  `yaml:"pop"`
	StartDate   []string        `yaml:"start_date"`
	EndDate     []string        `yaml:"end_date"`
	ModelParams []modelParamSet `yaml:"model_params"`
	NReplicates int             `yaml:"n_replicates"`
	Seed        *uint64         `yaml:"seed"`
}

type synthPopFile struct {
	Version   string   `yaml:"version"`
	Locations []string `yaml:"locations"`
}

// modelParamSet is one model_params mapping entry of a sweep file. It
// decodes key order from the YAML mapping node directly, since yaml.v3
// decodes a plain map[string]any in an unspecified order and the FRED
// CLI's -o flags must preserve the order the user wrote them in.
type modelParamSet []runparams.ModelParam

func (m *modelParamSet) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("model_params entry must be a mapping, got %v", node.Kind)
	}
	out := make(modelParamSet, 0, len(node.Content)/2)
	for i := 0; i < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		var value any
		if err := valNode.Decode(&value); err != nil {
			return err
		}
		out = append(out, runparams.ModelParam{Key: keyNode.Value, Value: value})
	}
	*m = out
	return nil
}

func loadSweep(path string) (sweep.ModelConfigSweep, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return sweep.ModelConfigSweep{}, err
	}
	var sf sweepFile
	if err := yaml.Unmarshal(b, &sf); err != nil {
		return sweep.ModelConfigSweep{}, err
	}

	pops := make([]synthpop.SynthPop, len(sf.Pop))
	for i, p := range sf.Pop {
		pops[i] = synthpop.New(p.Version, p.Locations)
	}

	var modelParams [][]runparams.ModelParam
	if sf.ModelParams != nil {
		modelParams = make([][]runparams.ModelParam, len(sf.ModelParams))
		for i, p := range sf.ModelParams {
			modelParams[i] = []runparams.ModelParam(p)
		}
	}

	sw := sweep.ModelConfigSweep{
		Program:     sf.Program,
		Pop:         pops,
		StartDate:   sf.StartDate,
		EndDate:     sf.EndDate,
		ModelParams: modelParams,
		NReplicates: sf.NReplicates,
	}
	if sf.Seed != nil {
		sw.Seed = *sf.Seed
	}
	return sw, nil
}

func main() {
	logger := log.NewJSONLogger(log.NewSyncWriter(os.Stderr))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)
	logger = log.With(logger, "caller", log.DefaultCaller)

	if len(os.Args) < 2 {
		level.Error(logger).Log("msg", "expected a subcommand: submit, status, results, delete, serve-metrics")
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "submit":
		err = runSubmit(logger, os.Args[2:])
	case "status":
		err = runStatus(logger, os.Args[2:])
	case "results":
		err = runResults(logger, os.Args[2:])
	case "delete":
		err = runDelete(logger, os.Args[2:])
	case "serve-metrics":
		err = runServeMetrics(logger, os.Args[2:])
	default:
		level.Error(logger).Log("msg", "unknown subcommand", "subcommand", os.Args[1])
		os.Exit(1)
	}
	if err != nil {
		level.Error(logger).Log("msg", "command failed", "err", err)
		os.Exit(1)
	}
}

func runSubmit(logger log.Logger, args []string) error {
	if err := submitFlags.Parse(args); err != nil {
		return err
	}
	if *submitSweep == "" {
		return fmt.Errorf("--sweep must be set")
	}

	sw, err := loadSweep(*submitSweep)
	if err != nil {
		return fmt.Errorf("load sweep: %w", err)
	}

	cfg := epxconfig.FromEnv()
	var opts []job.Option
	if *submitKey != "" {
		opts = append(opts, job.WithKey(*submitKey))
	}
	opts = append(opts, job.WithSize(*submitSize))

	j, err := job.New(cfg, sw, *submitFRED, opts...)
	if err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	level.Info(logger).Log("msg", "expanded job", "key", j.Key, "runs", len(j.Runs))

	err = j.Execute(context.Background(), func(r *run.Run) cloud.Strategy {
		return cloud.NewCloudStrategy(r.Params, r.OutputDir, r.Size, r.FREDVersion, cfg)
	}, *submitConc)
	if err != nil {
		return fmt.Errorf("execute job: %w", err)
	}
	level.Info(logger).Log("msg", "submitted job", "key", j.Key)
	fmt.Println(j.Key)
	return nil
}

func runStatus(logger log.Logger, args []string) error {
	if err := statusFlags.Parse(args); err != nil {
		return err
	}
	if *statusKey == "" {
		return fmt.Errorf("--key must be set")
	}

	cfg := epxconfig.FromEnv()
	j, err := job.FromKey(cfg, *statusKey)
	if err != nil {
		return fmt.Errorf("load job: %w", err)
	}
	st, err := j.Status()
	if err != nil {
		return fmt.Errorf("job status: %w", err)
	}
	fmt.Println(st.Name())
	return nil
}

func runResults(logger log.Logger, args []string) error {
	if err := resultsFlags.Parse(args); err != nil {
		return err
	}
	if *resultsKey == "" {
		return fmt.Errorf("--key must be set")
	}

	cfg := epxconfig.FromEnv()
	j, err := job.FromKey(cfg, *resultsKey)
	if err != nil {
		return fmt.Errorf("load job: %w", err)
	}
	rows, err := j.RunMeta()
	if err != nil {
		return fmt.Errorf("run meta: %w", err)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

func runDelete(logger log.Logger, args []string) error {
	if err := deleteFlags.Parse(args); err != nil {
		return err
	}
	if *deleteKey == "" {
		return fmt.Errorf("--key must be set")
	}

	cfg := epxconfig.FromEnv()
	j, err := job.FromKey(cfg, *deleteKey)
	if err != nil {
		return fmt.Errorf("load job: %w", err)
	}

	interactive := !*deleteYes
	return j.Delete(interactive, func() bool {
		fmt.Fprintf(os.Stderr, "delete job %s and all of its runs? [y/N] ", j.Key)
		var answer string
		fmt.Scanln(&answer)
		return answer == "y" || answer == "Y"
	})
}

func runServeMetrics(logger log.Logger, args []string) error {
	if err := metricsFlags.Parse(args); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	cloud.RegisterMetrics(reg)
	job.RegisterMetrics(reg)

	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	level.Info(logger).Log("msg", "serving metrics", "addr", *metricsAddr)
	return http.ListenAndServe(*metricsAddr, nil)
}
