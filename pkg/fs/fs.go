// Package fs resolves the on-disk paths of FRED run artifacts, across the
// two output-layout generations FRED has shipped.
package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// VarBySimDayPath pairs a simulation day with the artifact path for that
// day.
type VarBySimDayPath struct {
	SimDay int
	Path   string
}

// FileFinder resolves the paths of every artifact a FRED run can produce.
// Not every accessor is meaningful on every layout; see FileFinderF10 and
// FileFinderF11 for which return zero values on layouts that don't
// support them.
type FileFinder interface {
	ReturnCode() string
	Errors() string
	Logs() string
	Status() string
	State(condition, state, kind string) string
	Dates() string
	EpiWeek() string
	PopSize() string
	Conditions() string
	PrintOutput() string
	CSVOutput(name string) string
	TextOutput(name string) string
	Numeric(name string) string
	ListTableEndOfSim(name string) string
	ListTableBySimDay(name string) ([]VarBySimDayPath, error)
	TableEndOfSim(name string) string
	TableBySimDay(name string) ([]VarBySimDayPath, error)
	List(name string) string
	ListBySimDay(name string) ([]VarBySimDayPath, error)
	Network(name string, simDay int) string
}

// stateSuffix returns the DAILY/ filename fragment for a state accessor
// kind: count, new or cumulative.
func stateSuffix(condition, state, kind string) string {
	switch kind {
	case "new":
		return fmt.Sprintf("%s.new%s.txt", condition, state)
	case "cumulative":
		return fmt.Sprintf("%s.tot%s.txt", condition, state)
	default:
		return fmt.Sprintf("%s.%s.txt", condition, state)
	}
}

// globBySimDay finds every file in dir matching "<prefix>-<day><suffix>"
// and returns them sorted by day.
func globBySimDay(dir, prefix, suffix string) ([]VarBySimDayPath, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []VarBySimDayPath
	want := prefix + "-"
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, want) || !strings.HasSuffix(name, suffix) {
			continue
		}
		dayStr := strings.TrimSuffix(strings.TrimPrefix(name, want), suffix)
		var day int
		if _, err := fmt.Sscanf(dayStr, "%d", &day); err != nil {
			continue
		}
		out = append(out, VarBySimDayPath{SimDay: day, Path: filepath.Join(dir, name)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SimDay < out[j].SimDay })
	return out, nil
}
