package store

import "errors"

// ErrInvalidSectionData marks a section whose stored JSON no longer matches
// the expected shape.
var ErrInvalidSectionData = errors.New("invalid section data")
