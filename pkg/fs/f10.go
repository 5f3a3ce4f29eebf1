package fs

import (
	"fmt"
	"path/filepath"
)

// FileFinderF10 resolves artifact paths for the legacy FRED output layout,
// nested under a RUN<n>/ directory.
type FileFinderF10 struct {
	OutputDir    string
	RunNumber    int
	RunOutputDir string
}

// NewFileFinderF10 builds a finder rooted at outputDir/RUN<runNumber>.
// runNumber defaults to 1 when 0.
func NewFileFinderF10(outputDir string, runNumber int) *FileFinderF10 {
	if runNumber == 0 {
		runNumber = 1
	}
	return &FileFinderF10{
		OutputDir:    outputDir,
		RunNumber:    runNumber,
		RunOutputDir: filepath.Join(outputDir, fmt.Sprintf("RUN%d", runNumber)),
	}
}

func (f *FileFinderF10) ReturnCode() string { return filepath.Join(f.RunOutputDir, "return_code.txt") }
func (f *FileFinderF10) Errors() string     { return filepath.Join(f.RunOutputDir, "errors.txt") }
func (f *FileFinderF10) Logs() string       { return "" }
func (f *FileFinderF10) Status() string     { return filepath.Join(f.RunOutputDir, "status.txt") }

func (f *FileFinderF10) State(condition, state, kind string) string {
	return filepath.Join(f.RunOutputDir, "DAILY", stateSuffix(condition, state, kind))
}

func (f *FileFinderF10) Dates() string      { return filepath.Join(f.RunOutputDir, "DAILY", "Date.txt") }
func (f *FileFinderF10) EpiWeek() string    { return filepath.Join(f.RunOutputDir, "DAILY", "EpiWeek.txt") }
func (f *FileFinderF10) PopSize() string    { return filepath.Join(f.RunOutputDir, "DAILY", "Popsize.txt") }
func (f *FileFinderF10) Conditions() string { return filepath.Join(f.RunOutputDir, "conditions.json") }
func (f *FileFinderF10) PrintOutput() string {
	return filepath.Join(f.RunOutputDir, "fred_out.txt")
}

func (f *FileFinderF10) CSVOutput(name string) string {
	return filepath.Join(f.RunOutputDir, "CSV", name)
}

func (f *FileFinderF10) TextOutput(name string) string {
	return filepath.Join(f.RunOutputDir, "CSV", name)
}

func (f *FileFinderF10) Numeric(name string) string {
	return filepath.Join(f.RunOutputDir, "DAILY", fmt.Sprintf("FRED.%s.txt", name))
}

func (f *FileFinderF10) ListTableEndOfSim(name string) string {
	return filepath.Join(f.RunOutputDir, "LIST", name+".txt")
}

func (f *FileFinderF10) ListTableBySimDay(name string) ([]VarBySimDayPath, error) {
	return globBySimDay(filepath.Join(f.RunOutputDir, "LIST"), name, ".txt")
}

func (f *FileFinderF10) TableEndOfSim(name string) string {
	return filepath.Join(f.RunOutputDir, "LIST", name+".txt")
}

func (f *FileFinderF10) TableBySimDay(name string) ([]VarBySimDayPath, error) {
	return globBySimDay(filepath.Join(f.RunOutputDir, "LIST"), name, ".txt")
}

// List returns the legacy list_end_of_sim path.
func (f *FileFinderF10) List(name string) string {
	return filepath.Join(f.RunOutputDir, "LIST", name+".txt")
}

func (f *FileFinderF10) ListBySimDay(name string) ([]VarBySimDayPath, error) {
	return globBySimDay(filepath.Join(f.RunOutputDir, "LIST"), name, ".txt")
}

func (f *FileFinderF10) Network(name string, simDay int) string {
	return filepath.Join(f.RunOutputDir, fmt.Sprintf("%s-%d.vna", name, simDay))
}
