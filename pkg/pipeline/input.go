package pipeline

import (
	"fmt"
	"os"

	"github.com/cdaps/hidef/pkg/graph"
)

// openInput validates that path names a regular, non-empty file before any
// clustering work starts. Missing and empty inputs are reported as
// malformed so callers can map them to distinct exit codes.
func openInput(path string) (*os.File, error) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, fmt.Errorf("%w: %q is not a file", graph.ErrMalformedInput, path)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("%w: %q is an empty file", graph.ErrMalformedInput, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", graph.ErrMalformedInput, err)
	}
	return f, nil
}
