package results

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/epistemix-com/epx-go/pkg/fs"
)

// runResults is the shared RunResults implementation for both output
// layouts; the path differences are already abstracted by fs.FileFinder,
// so only the on-disk format (extension-driven) varies.
type runResults struct {
	finder fs.FileFinder
}

// NewRunResults wraps finder in a RunResults.
func NewRunResults(finder fs.FileFinder) RunResults {
	return &runResults{finder: finder}
}

func (r *runResults) State(condition, state, kind string) ([]StateRow, error) {
	path := r.finder.State(condition, state, kind)
	pairs, err := requireTwoColumnInt(path)
	if err != nil {
		return nil, err
	}
	out := make([]StateRow, len(pairs))
	for i, p := range pairs {
		out[i] = StateRow{SimDay: p[0], Count: p[1]}
	}
	return out, nil
}

func requireTwoColumnInt(path string) ([][2]int, error) {
	if _, err := statPath(path); err != nil {
		return nil, err
	}
	return parseTwoColumnInt(path)
}

func (r *runResults) PopSize() ([]PopSizeRow, error) {
	pairs, err := parseTwoColumnInt(r.finder.PopSize())
	if err != nil {
		return nil, err
	}
	out := make([]PopSizeRow, len(pairs))
	for i, p := range pairs {
		out[i] = PopSizeRow{SimDay: p[0], PopSize: p[1]}
	}
	return out, nil
}

func (r *runResults) EpiWeeks() ([]EpiWeekRow, error) {
	lines, err := readLines(r.finder.EpiWeek())
	if err != nil {
		return nil, err
	}
	out := make([]EpiWeekRow, 0, len(lines))
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		day, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("parse sim day from %q: %w", line, err)
		}
		out = append(out, EpiWeekRow{SimDay: day, EpiWeek: fields[1]})
	}
	return out, nil
}

func (r *runResults) Dates() ([]DateRow, error) {
	lines, err := readLines(r.finder.Dates())
	if err != nil {
		return nil, err
	}
	out := make([]DateRow, 0, len(lines))
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		day, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("parse sim day from %q: %w", line, err)
		}
		date, err := parseDate(fields[1])
		if err != nil {
			return nil, err
		}
		out = append(out, DateRow{SimDay: day, SimDate: date})
	}
	return out, nil
}

func (r *runResults) PrintOutput() ([]string, error) {
	return requireLines(r.finder.PrintOutput())
}

func (r *runResults) CSVOutput(name string) ([]map[string]string, error) {
	path := r.finder.CSVOutput(name)
	if _, err := statPath(path); err != nil {
		return nil, err
	}
	records, err := readCSVRecords(path)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	header := records[0]
	out := make([]map[string]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(rec) {
				row[h] = rec[i]
			}
		}
		out = append(out, row)
	}
	return out, nil
}

func (r *runResults) FileOutput(name string) ([]string, error) {
	return requireLines(r.finder.TextOutput(name))
}

func (r *runResults) NumericVar(name string) ([]NumericVarRow, error) {
	path := r.finder.Numeric(name)
	rows, err := readFloatRows(path, 2)
	if err != nil {
		return nil, err
	}
	out := make([]NumericVarRow, len(rows))
	for i, row := range rows {
		out[i] = NumericVarRow{SimDay: int(row[0]), Value: row[1]}
	}
	return out, nil
}

func (r *runResults) ListVar(name string, wide bool) ([]ListVarRow, []ListVarWideRow, error) {
	if endOfSim := endOfSimListPath(r.finder, name); endOfSim != "" {
		return readListVarFile(endOfSim, wide)
	}

	byDay, err := r.finder.ListBySimDay(name)
	if err != nil {
		return nil, nil, err
	}
	var long []ListVarRow
	var w []ListVarWideRow
	for _, vd := range byDay {
		l, ww, err := readListVarDay(vd.Path, vd.SimDay, wide)
		if err != nil {
			return nil, nil, err
		}
		long = append(long, l...)
		w = append(w, ww...)
	}
	return long, w, nil
}

func endOfSimListPath(finder fs.FileFinder, name string) string {
	if f10, ok := finder.(*fs.FileFinderF10); ok {
		return f10.List(name)
	}
	if f11, ok := finder.(*fs.FileFinderF11); ok {
		return f11.List(name)
	}
	return ""
}

func readListVarFile(path string, wide bool) ([]ListVarRow, []ListVarWideRow, error) {
	rows, err := readFloatMatrix(path)
	if err != nil {
		return nil, nil, err
	}
	return toListVarRows(rows, wide)
}

func readListVarDay(path string, simDay int, wide bool) ([]ListVarRow, []ListVarWideRow, error) {
	values, err := readFloatRow(path)
	if err != nil {
		return nil, nil, err
	}
	if wide {
		return nil, []ListVarWideRow{{SimDay: simDay, Items: values}}, nil
	}
	long := make([]ListVarRow, len(values))
	for i, v := range values {
		long[i] = ListVarRow{SimDay: simDay, ListIndex: i, Value: v}
	}
	return long, nil, nil
}

// toListVarRows interprets a matrix of rows already keyed by sim day in
// column 0, values in the remaining columns.
func toListVarRows(rows [][]float64, wide bool) ([]ListVarRow, []ListVarWideRow, error) {
	if wide {
		out := make([]ListVarWideRow, len(rows))
		for i, row := range rows {
			out[i] = ListVarWideRow{SimDay: int(row[0]), Items: row[1:]}
		}
		return nil, out, nil
	}
	var out []ListVarRow
	for _, row := range rows {
		day := int(row[0])
		for idx, v := range row[1:] {
			out = append(out, ListVarRow{SimDay: day, ListIndex: idx, Value: v})
		}
	}
	return out, nil, nil
}

func (r *runResults) ListTableVar(name string, wide bool) ([]ListTableVarRow, []ListTableVarWideRow, error) {
	endOfSim := tableEndOfSimPath(r.finder, name, true)
	if endOfSim != "" {
		return readListTableVarFile(endOfSim, wide)
	}
	byDay, err := r.finder.ListTableBySimDay(name)
	if err != nil {
		return nil, nil, err
	}
	var long []ListTableVarRow
	var w []ListTableVarWideRow
	for _, vd := range byDay {
		l, ww, err := readListTableVarDayFile(vd.Path, vd.SimDay, wide)
		if err != nil {
			return nil, nil, err
		}
		long = append(long, l...)
		w = append(w, ww...)
	}
	return long, w, nil
}

func tableEndOfSimPath(finder fs.FileFinder, name string, list bool) string {
	if f10, ok := finder.(*fs.FileFinderF10); ok {
		if list {
			return f10.ListTableEndOfSim(name)
		}
		return f10.TableEndOfSim(name)
	}
	return ""
}

func readListTableVarFile(path string, wide bool) ([]ListTableVarRow, []ListTableVarWideRow, error) {
	rows, err := readFloatMatrix(path)
	if err != nil {
		return nil, nil, err
	}
	return groupListTableRows(rows, wide)
}

func readListTableVarDayFile(path string, simDay int, wide bool) ([]ListTableVarRow, []ListTableVarWideRow, error) {
	rows, err := readFloatMatrix(path)
	if err != nil {
		return nil, nil, err
	}
	for i := range rows {
		rows[i] = append([]float64{float64(simDay)}, rows[i]...)
	}
	return groupListTableRows(rows, wide)
}

// groupListTableRows interprets each row as (sim_day, key, list_index,
// value). In long format each row maps to one ListTableVarRow. In wide
// format rows sharing (sim_day, key) are grouped and pivoted into an
// Items slice indexed by list_index, padding any index never seen for
// that group with NaN.
func groupListTableRows(rows [][]float64, wide bool) ([]ListTableVarRow, []ListTableVarWideRow, error) {
	if !wide {
		out := make([]ListTableVarRow, len(rows))
		for i, row := range rows {
			out[i] = ListTableVarRow{
				SimDay:    int(row[0]),
				Key:       row[1],
				ListIndex: int(row[2]),
				Value:     row[3],
			}
		}
		return out, nil, nil
	}

	type groupKey struct {
		day int
		key float64
	}
	var order []groupKey
	values := map[groupKey]map[int]float64{}
	maxIndex := 0

	for _, row := range rows {
		gk := groupKey{day: int(row[0]), key: row[1]}
		if _, ok := values[gk]; !ok {
			order = append(order, gk)
			values[gk] = map[int]float64{}
		}
		idx := int(row[2])
		values[gk][idx] = row[3]
		if idx > maxIndex {
			maxIndex = idx
		}
	}

	itemsLen := maxIndex + 1
	out := make([]ListTableVarWideRow, 0, len(order))
	for _, gk := range order {
		items := make([]float64, itemsLen)
		for i := range items {
			items[i] = nan
		}
		for idx, v := range values[gk] {
			items[idx] = v
		}
		out = append(out, ListTableVarWideRow{SimDay: gk.day, Key: gk.key, Items: items})
	}
	return nil, out, nil
}

func (r *runResults) TableVar(name string) ([]TableVarRow, error) {
	path := tableEndOfSimPath(r.finder, name, false)
	if path == "" {
		byDay, err := r.finder.TableBySimDay(name)
		if err != nil {
			return nil, err
		}
		var out []TableVarRow
		for _, vd := range byDay {
			rows, err := readFloatMatrix(vd.Path)
			if err != nil {
				return nil, err
			}
			for _, row := range rows {
				out = append(out, TableVarRow{SimDay: vd.SimDay, Key: row[0], Value: row[1]})
			}
		}
		return out, nil
	}
	rows, err := readFloatMatrix(path)
	if err != nil {
		return nil, err
	}
	out := make([]TableVarRow, len(rows))
	for i, row := range rows {
		out[i] = TableVarRow{SimDay: int(row[0]), Key: row[1], Value: row[2]}
	}
	return out, nil
}

func (r *runResults) Network(name string, simDay *int) (Graph, error) {
	day := 0
	if simDay != nil {
		day = *simDay
	}
	path := r.finder.Network(name, day)
	return parseNetworkFile(path)
}
