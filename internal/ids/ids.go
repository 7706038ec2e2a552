// Package ids generates identifiers for stored records.
package ids

import (
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// New returns a random identifier for entity rows.
func New() string {
	return uuid.NewString()
}

// NewSortable returns a lexicographically sortable identifier, used for
// audit rows so primary-key order follows insertion order.
func NewSortable() string {
	return ulid.Make().String()
}
