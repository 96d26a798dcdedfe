package graph

import "errors"

// ErrMalformedInput reports unusable graph input: empty input, bad field
// counts, non-numeric or negative weights, self-loops, duplicate edges.
var ErrMalformedInput = errors.New("malformed graph input")
