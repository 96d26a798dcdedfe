package hierarchy

import "errors"

// ErrInconsistentHierarchy reports a containment cycle among retained
// communities. This is an internal invariant violation pointing at a bad
// dedup threshold, never a transient condition.
var ErrInconsistentHierarchy = errors.New("inconsistent hierarchy")
