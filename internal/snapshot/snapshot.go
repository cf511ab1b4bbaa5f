// Package snapshot produces the deterministic primary-key-to-item mapping
// (§4.8) consumed by tests and by the (external) snapshot-diff formatter.
package snapshot

import (
	"github.com/ocowchun/tindex/internal/core"
	"github.com/ocowchun/tindex/internal/table"
)

// Build returns { "PK__SK": item, ... } over every item currently in
// state, as deep clones. The map carries no order; ranging over it does
// not follow (PK, SK) order. table.State already clones for us; this
// wrapper exists so callers depend on a small, stable interface rather
// than reaching into table state directly.
func Build(state *table.State) map[string]core.Item {
	return state.Snapshot()
}
