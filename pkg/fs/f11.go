package fs

import (
	"fmt"
	"path/filepath"
)

// FileFinderF11 resolves artifact paths for the current, flat FRED output
// layout.
type FileFinderF11 struct {
	OutputDir string
}

// NewFileFinderF11 builds a finder rooted directly at outputDir.
func NewFileFinderF11(outputDir string) *FileFinderF11 {
	return &FileFinderF11{OutputDir: outputDir}
}

func (f *FileFinderF11) ReturnCode() string { return filepath.Join(f.OutputDir, "return_code.txt") }
func (f *FileFinderF11) Errors() string     { return "" }
func (f *FileFinderF11) Logs() string       { return filepath.Join(f.OutputDir, "logs.txt") }
func (f *FileFinderF11) Status() string     { return "" }

func (f *FileFinderF11) State(condition, state, kind string) string {
	return filepath.Join(f.OutputDir, "DAILY", stateSuffix(condition, state, kind))
}

func (f *FileFinderF11) Dates() string      { return filepath.Join(f.OutputDir, "DAILY", "Date.txt") }
func (f *FileFinderF11) EpiWeek() string    { return filepath.Join(f.OutputDir, "DAILY", "EpiWeek.txt") }
func (f *FileFinderF11) PopSize() string    { return filepath.Join(f.OutputDir, "DAILY", "Popsize.txt") }
func (f *FileFinderF11) Conditions() string { return filepath.Join(f.OutputDir, "conditions.json") }
func (f *FileFinderF11) PrintOutput() string {
	return filepath.Join(f.OutputDir, "USER_OUTPUT", "print_output.txt")
}

func (f *FileFinderF11) CSVOutput(name string) string {
	return filepath.Join(f.OutputDir, "USER_OUTPUT", name)
}

func (f *FileFinderF11) TextOutput(name string) string {
	return filepath.Join(f.OutputDir, "USER_OUTPUT", name)
}

func (f *FileFinderF11) Numeric(name string) string {
	return filepath.Join(f.OutputDir, "VARIABLES", fmt.Sprintf("numeric.%s.csv", name))
}

// ListTableEndOfSim has no F11 equivalent; list_table variables are only
// available by simulation day on this layout.
func (f *FileFinderF11) ListTableEndOfSim(name string) string { return "" }

func (f *FileFinderF11) ListTableBySimDay(name string) ([]VarBySimDayPath, error) {
	return globBySimDay(filepath.Join(f.OutputDir, "VARIABLES"), "list_table."+name, ".csv")
}

func (f *FileFinderF11) TableEndOfSim(name string) string { return "" }

func (f *FileFinderF11) TableBySimDay(name string) ([]VarBySimDayPath, error) {
	return globBySimDay(filepath.Join(f.OutputDir, "VARIABLES"), "table."+name, ".csv")
}

// List returns the F11 end-of-sim list variable path.
func (f *FileFinderF11) List(name string) string {
	return filepath.Join(f.OutputDir, "VARIABLES", fmt.Sprintf("list.%s.csv", name))
}

// ListBySimDay has no F11 equivalent; list variables are end-of-sim only
// on this layout.
func (f *FileFinderF11) ListBySimDay(name string) ([]VarBySimDayPath, error) { return nil, nil }

func (f *FileFinderF11) Network(name string, simDay int) string {
	return filepath.Join(f.OutputDir, "NETWORKS", fmt.Sprintf("%s-%d.gv", name, simDay))
}
