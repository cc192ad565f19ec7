package mediator

import (
	"maps"
	"slices"
	"strings"
)

// Table is the immutable dispatch table produced by Compile.
// It is safe for concurrent use.
type Table struct {
	chains map[TypeKey]*Chain
}

func newTable(chains map[TypeKey]*Chain) *Table {
	return &Table{chains: maps.Clone(chains)}
}

// Lookup returns the chain serving the request type key.
func (t *Table) Lookup(key TypeKey) (*Chain, bool) {
	c, ok := t.chains[key]
	return c, ok
}

// Chains returns all chains sorted by request type name.
func (t *Table) Chains() []*Chain {
	out := slices.Collect(maps.Values(t.chains))
	slices.SortFunc(out, func(a, b *Chain) int {
		return strings.Compare(a.request.Type.String(), b.request.Type.String())
	})
	return out
}

// Len returns the number of routable request types.
func (t *Table) Len() int {
	return len(t.chains)
}
