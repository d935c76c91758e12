package qart

import "errors"

// ErrNotFound is returned when an artifact key does not exist.
var ErrNotFound = errors.New("artifact not found")
