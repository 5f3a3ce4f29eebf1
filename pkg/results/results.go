// Package results reads typed FRED run output artifacts: state counts,
// population size, dates, epi-weeks, user output and model variables.
package results

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ArtifactNotFound indicates a required artifact file does not exist.
// State, CSVOutput and FileOutput raise this on a missing file; every
// other accessor returns an empty result instead.
type ArtifactNotFound struct {
	Path string
}

func (e *ArtifactNotFound) Error() string {
	return fmt.Sprintf("artifact not found: %s", e.Path)
}

// StateRow is one day's count for a (condition, state) pair.
type StateRow struct {
	SimDay int
	Count  int
}

// PopSizeRow is one day's population size.
type PopSizeRow struct {
	SimDay  int
	PopSize int
}

// EpiWeekRow maps a simulation day to an epidemiological week label.
type EpiWeekRow struct {
	SimDay  int
	EpiWeek string
}

// DateRow maps a simulation day to a calendar date.
type DateRow struct {
	SimDay  int
	SimDate time.Time
}

// NumericVarRow is one day's value of a scalar model variable.
type NumericVarRow struct {
	SimDay int
	Value  float64
}

// ListVarRow is one (day, index) entry of a list model variable, long
// format.
type ListVarRow struct {
	SimDay    int
	ListIndex int
	Value     float64
}

// ListVarWideRow is one day's list model variable, wide format.
type ListVarWideRow struct {
	SimDay int
	Items  []float64
}

// ListTableVarRow is one (day, key, index) entry of a list-table model
// variable, long format.
type ListTableVarRow struct {
	SimDay    int
	Key       float64
	ListIndex int
	Value     float64
}

// ListTableVarWideRow is one (day, key) entry of a list-table model
// variable, wide format. Missing indices are padded with math.NaN().
type ListTableVarWideRow struct {
	SimDay int
	Key    float64
	Items  []float64
}

// TableVarRow is one (day, key) entry of a table model variable.
type TableVarRow struct {
	SimDay int
	Key    float64
	Value  float64
}

// Edge is one edge of a Graph.
type Edge struct {
	From, To string
}

// Graph is a minimal network snapshot: nodes and edges, directed or not.
type Graph struct {
	Nodes    []string
	Edges    []Edge
	Directed bool
}

// RunResults reads a single run's output artifacts.
type RunResults interface {
	State(condition, state, kind string) ([]StateRow, error)
	PopSize() ([]PopSizeRow, error)
	EpiWeeks() ([]EpiWeekRow, error)
	Dates() ([]DateRow, error)
	PrintOutput() ([]string, error)
	CSVOutput(name string) ([]map[string]string, error)
	FileOutput(name string) ([]string, error)
	NumericVar(name string) ([]NumericVarRow, error)
	ListVar(name string, wide bool) ([]ListVarRow, []ListVarWideRow, error)
	ListTableVar(name string, wide bool) ([]ListTableVarRow, []ListTableVarWideRow, error)
	TableVar(name string) ([]TableVarRow, error)
	Network(name string, simDay *int) (Graph, error)
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}

func requireLines(path string) ([]string, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, &ArtifactNotFound{Path: path}
		}
		return nil, err
	}
	return readLines(path)
}

// parseTwoColumnInt parses "<day> <value>" pairs, one per line, the
// legacy F10 whitespace-delimited format.
func parseTwoColumnInt(path string) ([][2]int, error) {
	lines, err := readLines(path)
	if err != nil {
		return nil, err
	}
	out := make([][2]int, 0, len(lines))
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		day, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("parse sim day from %q: %w", line, err)
		}
		val, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("parse value from %q: %w", line, err)
		}
		out = append(out, [2]int{day, val})
	}
	return out, nil
}

func isCSV(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".csv")
}

func readCSVRecords(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

var nan = math.NaN()
