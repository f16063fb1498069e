package manifest

import "errors"

// ErrNotFound indicates the manifest path does not exist.
var ErrNotFound = errors.New("manifest not found")

// ErrMalformed indicates the manifest exists but cannot be interpreted.
var ErrMalformed = errors.New("manifest malformed")
