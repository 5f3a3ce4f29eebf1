package results

import "github.com/epistemix-com/epx-go/pkg/fs"

// RunResultsFactory builds the RunResults matching finder's concrete
// layout. Since path resolution is already abstracted by fs.FileFinder,
// a single implementation backs both layouts.
type RunResultsFactory struct {
	Finder fs.FileFinder
}

// Build returns a RunResults reading through f.Finder.
func (f RunResultsFactory) Build() RunResults {
	return NewRunResults(f.Finder)
}
