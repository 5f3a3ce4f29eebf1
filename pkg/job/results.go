package job

import (
	"time"

	"github.com/epistemix-com/epx-go/pkg/results"
	"github.com/epistemix-com/epx-go/pkg/run"
)

// isNotReady reports whether err signals that a run's results are not yet
// available, the expected reason newJobResults skips a run rather than
// failing the whole aggregation.
func isNotReady(err error) bool {
	_, ok := err.(*run.ErrResultsNotReady)
	return ok
}

// JobResults re-exposes every RunResults accessor across a job's runs,
// prepending a RunID column to each row. Rows are ordered by run (in job
// order), and within a run by that accessor's natural order.
type JobResults struct {
	runs []jobRun
}

type jobRun struct {
	runID   int
	results results.RunResults
}

// newJobResults builds the job-level aggregator over every run whose
// results are available; a run that isn't DONE yet is silently omitted
// rather than failing the whole aggregation.
func newJobResults(runs []*run.Run) (*JobResults, error) {
	jr := make([]jobRun, 0, len(runs))
	for _, r := range runs {
		res, err := r.Results()
		if err != nil {
			if isNotReady(err) {
				continue
			}
			return nil, err
		}
		var runID int
		if r.RunID != nil {
			runID = *r.RunID
		}
		jr = append(jr, jobRun{runID: runID, results: res})
	}
	return &JobResults{runs: jr}, nil
}

// StateRow is a job-level State row.
type StateRow struct {
	RunID  int
	SimDay int
	Count  int
}

func (jr *JobResults) State(condition, state, kind string) ([]StateRow, error) {
	var out []StateRow
	for _, r := range jr.runs {
		rows, err := r.results.State(condition, state, kind)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			out = append(out, StateRow{RunID: r.runID, SimDay: row.SimDay, Count: row.Count})
		}
	}
	return out, nil
}

// PopSizeRow is a job-level PopSize row.
type PopSizeRow struct {
	RunID   int
	SimDay  int
	PopSize int
}

func (jr *JobResults) PopSize() ([]PopSizeRow, error) {
	var out []PopSizeRow
	for _, r := range jr.runs {
		rows, err := r.results.PopSize()
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			out = append(out, PopSizeRow{RunID: r.runID, SimDay: row.SimDay, PopSize: row.PopSize})
		}
	}
	return out, nil
}

// NumericVarRow is a job-level NumericVar row.
type NumericVarRow struct {
	RunID  int
	SimDay int
	Value  float64
}

func (jr *JobResults) NumericVar(name string) ([]NumericVarRow, error) {
	var out []NumericVarRow
	for _, r := range jr.runs {
		rows, err := r.results.NumericVar(name)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			out = append(out, NumericVarRow{RunID: r.runID, SimDay: row.SimDay, Value: row.Value})
		}
	}
	return out, nil
}

// ListTableVarWideRow is a job-level wide ListTableVar row, NaN-padded per
// run the same way the single-run accessor pads it.
type ListTableVarWideRow struct {
	RunID  int
	SimDay int
	Key    float64
	Items  []float64
}

// ListTableVarRow is a job-level long ListTableVar row.
type ListTableVarRow struct {
	RunID     int
	SimDay    int
	Key       float64
	ListIndex int
	Value     float64
}

func (jr *JobResults) ListTableVar(name string, wide bool) ([]ListTableVarRow, []ListTableVarWideRow, error) {
	var long []ListTableVarRow
	var w []ListTableVarWideRow
	for _, r := range jr.runs {
		l, ww, err := r.results.ListTableVar(name, wide)
		if err != nil {
			return nil, nil, err
		}
		for _, row := range l {
			long = append(long, ListTableVarRow{RunID: r.runID, SimDay: row.SimDay, Key: row.Key, ListIndex: row.ListIndex, Value: row.Value})
		}
		for _, row := range ww {
			w = append(w, ListTableVarWideRow{RunID: r.runID, SimDay: row.SimDay, Key: row.Key, Items: row.Items})
		}
	}
	return long, w, nil
}

// PrintOutput returns every run's printed lines keyed by RunID, since a
// bare string has no natural row to prepend a RunID column to.
func (jr *JobResults) PrintOutput() (map[int][]string, error) {
	out := make(map[int][]string, len(jr.runs))
	for _, r := range jr.runs {
		lines, err := r.results.PrintOutput()
		if err != nil {
			return nil, err
		}
		out[r.runID] = lines
	}
	return out, nil
}

// EpiWeekRow is a job-level EpiWeeks row.
type EpiWeekRow struct {
	RunID   int
	SimDay  int
	EpiWeek string
}

func (jr *JobResults) EpiWeeks() ([]EpiWeekRow, error) {
	var out []EpiWeekRow
	for _, r := range jr.runs {
		rows, err := r.results.EpiWeeks()
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			out = append(out, EpiWeekRow{RunID: r.runID, SimDay: row.SimDay, EpiWeek: row.EpiWeek})
		}
	}
	return out, nil
}

// DateRow is a job-level Dates row.
type DateRow struct {
	RunID   int
	SimDay  int
	SimDate time.Time
}

func (jr *JobResults) Dates() ([]DateRow, error) {
	var out []DateRow
	for _, r := range jr.runs {
		rows, err := r.results.Dates()
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			out = append(out, DateRow{RunID: r.runID, SimDay: row.SimDay, SimDate: row.SimDate})
		}
	}
	return out, nil
}

// CSVOutput returns name's rows for every run, keyed by RunID.
func (jr *JobResults) CSVOutput(name string) (map[int][]map[string]string, error) {
	out := make(map[int][]map[string]string, len(jr.runs))
	for _, r := range jr.runs {
		rows, err := r.results.CSVOutput(name)
		if err != nil {
			return nil, err
		}
		out[r.runID] = rows
	}
	return out, nil
}

// FileOutput returns name's lines for every run, keyed by RunID.
func (jr *JobResults) FileOutput(name string) (map[int][]string, error) {
	out := make(map[int][]string, len(jr.runs))
	for _, r := range jr.runs {
		lines, err := r.results.FileOutput(name)
		if err != nil {
			return nil, err
		}
		out[r.runID] = lines
	}
	return out, nil
}

// ListVarRow is a job-level long ListVar row.
type ListVarRow struct {
	RunID     int
	SimDay    int
	ListIndex int
	Value     float64
}

// ListVarWideRow is a job-level wide ListVar row.
type ListVarWideRow struct {
	RunID  int
	SimDay int
	Items  []float64
}

func (jr *JobResults) ListVar(name string, wide bool) ([]ListVarRow, []ListVarWideRow, error) {
	var long []ListVarRow
	var w []ListVarWideRow
	for _, r := range jr.runs {
		l, ww, err := r.results.ListVar(name, wide)
		if err != nil {
			return nil, nil, err
		}
		for _, row := range l {
			long = append(long, ListVarRow{RunID: r.runID, SimDay: row.SimDay, ListIndex: row.ListIndex, Value: row.Value})
		}
		for _, row := range ww {
			w = append(w, ListVarWideRow{RunID: r.runID, SimDay: row.SimDay, Items: row.Items})
		}
	}
	return long, w, nil
}

// TableVarRow is a job-level TableVar row.
type TableVarRow struct {
	RunID  int
	SimDay int
	Key    float64
	Value  float64
}

func (jr *JobResults) TableVar(name string) ([]TableVarRow, error) {
	var out []TableVarRow
	for _, r := range jr.runs {
		rows, err := r.results.TableVar(name)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			out = append(out, TableVarRow{RunID: r.runID, SimDay: row.SimDay, Key: row.Key, Value: row.Value})
		}
	}
	return out, nil
}

// Network returns name's network snapshot for every run, keyed by RunID.
func (jr *JobResults) Network(name string, simDay *int) (map[int]results.Graph, error) {
	out := make(map[int]results.Graph, len(jr.runs))
	for _, r := range jr.runs {
		g, err := r.results.Network(name, simDay)
		if err != nil {
			return nil, err
		}
		out[r.runID] = g
	}
	return out, nil
}
