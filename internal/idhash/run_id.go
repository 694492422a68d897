package idhash

import "github.com/oklog/ulid/v2"

// NewRunID returns a new lexically sortable run identifier.
// Run IDs are not part of any deterministic output.
func NewRunID() string {
	return ulid.Make().String()
}
