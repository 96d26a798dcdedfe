package output

import "errors"

// ErrSerialization reports a failure writing or reading the CDAPS tables.
var ErrSerialization = errors.New("serialization failed")
