package fs

import (
	"os"
	"path/filepath"
)

// FileFinderFactory builds the FileFinder appropriate for outputDir's
// on-disk layout. RunNumber only applies when the legacy layout is
// selected; it is ignored otherwise.
type FileFinderFactory struct {
	OutputDir string
	RunNumber int
}

// Build detects the layout and returns the matching FileFinder. The
// current (F11) layout is identified by the presence of a flat logs.txt,
// return_code.txt or conditions.json directly under OutputDir; otherwise the legacy (F10)
// nested layout is assumed.
func (f FileFinderFactory) Build() FileFinder {
	if f.isF11() {
		return NewFileFinderF11(f.OutputDir)
	}
	return NewFileFinderF10(f.OutputDir, f.RunNumber)
}

func (f FileFinderFactory) isF11() bool {
	for _, marker := range []string{"logs.txt", "return_code.txt", "conditions.json"} {
		if _, err := os.Stat(filepath.Join(f.OutputDir, marker)); err == nil {
			return true
		}
	}
	return false
}
