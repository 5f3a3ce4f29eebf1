// Package status derives and parses the lifecycle state of a FRED run
// from its output directory.
package status

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/epistemix-com/epx-go/pkg/fs"
)

// Name values a RunStatus can report.
const (
	NotStarted = "NOT STARTED"
	Running    = "RUNNING"
	Error      = "ERROR"
	Done       = "DONE"
)

// LogItem is a single parsed log line.
type LogItem struct {
	Level   string
	Time    time.Time
	Message string
}

// MalformedLogError indicates a logs.txt line didn't match the expected
// format.
type MalformedLogError struct {
	Line string
}

func (e *MalformedLogError) Error() string {
	return fmt.Sprintf("malformed log line: %q", e.Line)
}

// RunStatus reports the lifecycle state of a run and its parsed logs.
type RunStatus interface {
	Name() string
	Logs() ([]LogItem, error)
	String() string
}

func deriveName(finder fs.FileFinder, returnCodePath string) string {
	if _, err := os.Stat(returnCodePath); err != nil {
		if outputDirMissing(finder) {
			return NotStarted
		}
		return Running
	}
	content, err := os.ReadFile(returnCodePath)
	if err != nil || len(strings.TrimSpace(string(content))) == 0 {
		return Running
	}
	code := strings.TrimSpace(string(content))
	if code == "0" {
		return Done
	}
	return Error
}

func outputDirMissing(finder fs.FileFinder) bool {
	var dir string
	switch f := finder.(type) {
	case *fs.FileFinderF10:
		dir = f.OutputDir
	case *fs.FileFinderF11:
		dir = f.OutputDir
	}
	_, err := os.Stat(dir)
	return os.IsNotExist(err)
}

var f11LogLine = regexp.MustCompile(`^\[(\S+)\] ([A-Z]+): (.*)$`)

// RunStatusF11 derives status from the current (flat) output layout.
type RunStatusF11 struct {
	Finder *fs.FileFinderF11
}

func (r *RunStatusF11) Name() string {
	return deriveName(r.Finder, r.Finder.ReturnCode())
}

func (r *RunStatusF11) String() string { return r.Name() }

func (r *RunStatusF11) GoString() string {
	return fmt.Sprintf("RunStatusF11(%s)", r.Finder.OutputDir)
}

func (r *RunStatusF11) Logs() ([]LogItem, error) {
	f, err := os.Open(r.Finder.Logs())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var items []LogItem
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		m := f11LogLine.FindStringSubmatch(line)
		if m == nil {
			return nil, &MalformedLogError{Line: line}
		}
		ts, err := time.Parse("2006-01-02T15:04:05.000Z", m[1])
		if err != nil {
			return nil, &MalformedLogError{Line: line}
		}
		items = append(items, LogItem{Level: m[2], Time: ts, Message: m[3]})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// RunStatusF10 derives status from the legacy (RUN<n>/-nested) output
// layout.
type RunStatusF10 struct {
	Finder *fs.FileFinderF10
}

func (r *RunStatusF10) Name() string {
	return deriveName(r.Finder, r.Finder.ReturnCode())
}

func (r *RunStatusF10) String() string { return r.Name() }

func (r *RunStatusF10) GoString() string {
	return fmt.Sprintf("RunStatusF10(%s)", r.Finder.RunOutputDir)
}

const fredErrorDelimiter = "FRED ERROR: "

func (r *RunStatusF10) Logs() ([]LogItem, error) {
	statusItems, err := r.parseStatusFile()
	if err != nil {
		return nil, err
	}
	errorItems, err := r.parseErrorsFile()
	if err != nil {
		return nil, err
	}
	return append(statusItems, errorItems...), nil
}

func (r *RunStatusF10) parseStatusFile() ([]LogItem, error) {
	path := r.Finder.Status()
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var items []LogItem
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		items = append(items, LogItem{Level: "INFO", Time: info.ModTime(), Message: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *RunStatusF10) parseErrorsFile() ([]LogItem, error) {
	path := r.Finder.Errors()
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var items []LogItem
	for _, segment := range strings.Split(string(content), fredErrorDelimiter) {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		items = append(items, LogItem{Level: "ERROR", Time: info.ModTime(), Message: segment})
	}
	return items, nil
}

// RunStatusFactory builds the RunStatus matching finder's concrete layout.
type RunStatusFactory struct {
	Finder fs.FileFinder
}

// Build dispatches on the concrete FileFinder type.
func (f RunStatusFactory) Build() (RunStatus, error) {
	switch finder := f.Finder.(type) {
	case *fs.FileFinderF10:
		return &RunStatusF10{Finder: finder}, nil
	case *fs.FileFinderF11:
		return &RunStatusF11{Finder: finder}, nil
	default:
		return nil, fmt.Errorf("status: unsupported FileFinder type %T", finder)
	}
}
