package results

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/epistemix-com/epx-go/pkg/fs"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestStateMissingFileReturnsArtifactNotFound(t *testing.T) {
	dir := t.TempDir()
	ff := fs.NewFileFinderF11(dir)
	rr := NewRunResults(ff)

	_, err := rr.State("TRANS_CONDITION", "Excluded", "count")
	if _, ok := err.(*ArtifactNotFound); !ok {
		t.Fatalf("expected *ArtifactNotFound, got %T (%v)", err, err)
	}
}

func TestStateParsesCounts(t *testing.T) {
	dir := t.TempDir()
	ff := fs.NewFileFinderF11(dir)
	writeFile(t, ff.State("TRANS_CONDITION", "Excluded", "count"), "0 10\n1 20\n")
	rr := NewRunResults(ff)

	rows, err := rr.State("TRANS_CONDITION", "Excluded", "count")
	if err != nil {
		t.Fatal(err)
	}
	want := []StateRow{{SimDay: 0, Count: 10}, {SimDay: 1, Count: 20}}
	if len(rows) != len(want) || rows[0] != want[0] || rows[1] != want[1] {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestPopSizeMissingFileReturnsEmpty(t *testing.T) {
	dir := t.TempDir()
	ff := fs.NewFileFinderF11(dir)
	rr := NewRunResults(ff)

	rows, err := rr.PopSize()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected empty, got %+v", rows)
	}
}

func TestDatesParsesCalendarDates(t *testing.T) {
	dir := t.TempDir()
	ff := fs.NewFileFinderF11(dir)
	writeFile(t, ff.Dates(), "0 2024-01-01\n0 2024-01-02\n")
	rr := NewRunResults(ff)

	rows, err := rr.Dates()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %+v", rows)
	}
	if !rows[0].SimDate.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected date: %v", rows[0].SimDate)
	}
}

func TestPrintOutputMissingRaisesArtifactNotFound(t *testing.T) {
	dir := t.TempDir()
	ff := fs.NewFileFinderF11(dir)
	rr := NewRunResults(ff)

	_, err := rr.PrintOutput()
	if _, ok := err.(*ArtifactNotFound); !ok {
		t.Fatalf("expected *ArtifactNotFound, got %T", err)
	}
}

func TestCSVOutputParsesHeader(t *testing.T) {
	dir := t.TempDir()
	ff := fs.NewFileFinderF11(dir)
	writeFile(t, ff.CSVOutput("sample.csv"), "col1,col2\n1,2\n3,4\n")
	rr := NewRunResults(ff)

	rows, err := rr.CSVOutput("sample.csv")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0]["col1"] != "1" || rows[0]["col2"] != "2" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestNumericVarF11CSV(t *testing.T) {
	dir := t.TempDir()
	ff := fs.NewFileFinderF11(dir)
	writeFile(t, ff.Numeric("my_var"), "sim_day,value\n0,40\n1,41\n")
	rr := NewRunResults(ff)

	rows, err := rr.NumericVar("my_var")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0].Value != 40 || rows[1].Value != 41 {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestListTableVarWidePadsNaN(t *testing.T) {
	dir := t.TempDir()
	ff := fs.NewFileFinderF10(dir, 0)
	writeFile(t, ff.ListTableEndOfSim("my_list_table_var"),
		"0 1.1 0 10\n0 2.2 0 20\n0 2.2 1 30\n")
	rr := NewRunResults(ff)

	_, wide, err := rr.ListTableVar("my_list_table_var", true)
	if err != nil {
		t.Fatal(err)
	}
	if len(wide) != 2 {
		t.Fatalf("expected 2 grouped rows, got %+v", wide)
	}
	if wide[0].Key != 1.1 || len(wide[0].Items) != 2 {
		t.Fatalf("unexpected first row: %+v", wide[0])
	}
	if !isNaN(wide[0].Items[1]) {
		t.Errorf("expected padded NaN, got %v", wide[0].Items[1])
	}
}

func isNaN(f float64) bool { return f != f }

func TestNetworkMissingReturnsEmptyGraph(t *testing.T) {
	dir := t.TempDir()
	ff := fs.NewFileFinderF11(dir)
	rr := NewRunResults(ff)

	g, err := rr.Network("directed", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Nodes) != 0 {
		t.Fatalf("expected empty graph, got %+v", g)
	}
}

func TestNetworkParsesGraphviz(t *testing.T) {
	dir := t.TempDir()
	ff := fs.NewFileFinderF11(dir)
	day := 0
	writeFile(t, ff.Network("directed", day), "digraph {\n\"A\" -> \"B\";\n\"B\" -> \"C\";\n}\n")
	rr := NewRunResults(ff)

	g, err := rr.Network("directed", &day)
	if err != nil {
		t.Fatal(err)
	}
	if !g.Directed {
		t.Error("expected directed graph")
	}
	if len(g.Nodes) != 3 || len(g.Edges) != 2 {
		t.Fatalf("unexpected graph: %+v", g)
	}
}
