package results

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

func statPath(path string) (os.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &ArtifactNotFound{Path: path}
		}
		return nil, err
	}
	return info, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse date %q", s)
}

// readFloatRows parses whitespace- or comma-delimited rows of exactly
// width float64 fields each, auto-detecting CSV vs legacy text format from
// the file extension.
func readFloatRows(path string, width int) ([][]float64, error) {
	rows, err := readFloatMatrix(path)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("%s: expected %d fields, got %d", path, width, len(row))
		}
	}
	return rows, nil
}

// readFloatMatrix parses every row of path into a slice of float64
// fields, skipping a CSV header row when the file is a .csv.
func readFloatMatrix(path string) ([][]float64, error) {
	if isCSV(path) {
		records, err := readCSVRecords(path)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return nil, nil
		}
		out := make([][]float64, 0, len(records)-1)
		for _, rec := range records[1:] {
			row, err := parseFloatFields(rec)
			if err != nil {
				return nil, err
			}
			out = append(out, row)
		}
		return out, nil
	}

	lines, err := readLines(path)
	if err != nil {
		return nil, err
	}
	out := make([][]float64, 0, len(lines))
	for _, line := range lines {
		row, err := parseFloatFields(strings.Fields(line))
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

// readFloatRow parses a single-row file of float64 fields (a by-sim-day
// list artifact, where the whole file is one simulation day's values).
func readFloatRow(path string) ([]float64, error) {
	rows, err := readFloatMatrix(path)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func parseFloatFields(fields []string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("parse float %q: %w", f, err)
		}
		out[i] = v
	}
	return out, nil
}
