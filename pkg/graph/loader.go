package graph

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Load parses a whitespace-delimited edge list into a Graph. Each line is
// "node_a node_b [weight]"; the weight defaults to 1.0. Blank lines and
// lines starting with '#' are skipped. Input with no edges is malformed.
func Load(r io.Reader) (*Graph, error) {
	g := New()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 || len(fields) > 3 {
			return nil, fmt.Errorf("%w: line %d: expected 2 or 3 fields, got %d", ErrMalformedInput, lineNum, len(fields))
		}

		weight := 1.0
		if len(fields) == 3 {
			w, err := strconv.ParseFloat(fields[2], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: non-numeric weight %q", ErrMalformedInput, lineNum, fields[2])
			}
			weight = w
		}

		if err := g.AddEdge(fields[0], fields[1], weight); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading input: %v", ErrMalformedInput, err)
	}

	if g.EdgeCount() == 0 {
		return nil, fmt.Errorf("%w: no edges in input", ErrMalformedInput)
	}
	return g, nil
}

// LoadFile opens path and parses it with Load.
func LoadFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	defer f.Close()
	return Load(f)
}
