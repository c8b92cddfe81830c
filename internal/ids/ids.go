// Package ids generates sortable identifiers for storage keys.
package ids

import "github.com/oklog/ulid/v2"

// New returns a lexicographically sortable identifier. ulid.Make uses
// the package-level locked entropy source, so New is safe for
// concurrent use.
func New() string {
	return ulid.Make().String()
}
