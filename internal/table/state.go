// Package table owns the authoritative item store and its index set for a
// single table (§4.3).
package table

import (
	"sort"

	"github.com/ocowchun/tindex/internal/core"
	"github.com/ocowchun/tindex/internal/indexset"
	"github.com/ocowchun/tindex/internal/treap"
)

// State is the authoritative item store keyed by encoded primary key, plus
// the index set derived from it.
type State struct {
	items   map[string]core.Item
	indexes *indexset.IndexSet
}

// New returns an empty table state.
func New() *State {
	return &State{
		items:   make(map[string]core.Item),
		indexes: indexset.New(),
	}
}

func keyOf(item core.Item) (string, string, bool) {
	pk, ok := item["PK"]
	if !ok || pk.S == nil {
		return "", "", false
	}
	sk, ok := item["SK"]
	if !ok || sk.S == nil {
		return "", "", false
	}
	return *pk.S, *sk.S, true
}

// CloneItemByKey returns a deep copy of the item at (pk, sk), if any.
func (s *State) CloneItemByKey(pk, sk string) (core.Item, bool) {
	item, ok := s.items[core.EncodeItemKey(pk, sk)]
	if !ok {
		return nil, false
	}
	return item.Clone(), true
}

// Put validates PK/SK are strings, replaces any prior item at that key in
// both the store and the index set, and stores a deep copy of item.
func (s *State) Put(item core.Item) error {
	pk, sk, ok := keyOf(item)
	if !ok {
		return core.NewValidationError("One of the required keys was not given a value")
	}
	key := core.EncodeItemKey(pk, sk)
	if prior, exists := s.items[key]; exists {
		s.indexes.Remove(key, prior)
	}
	cloned := item.Clone()
	s.items[key] = cloned
	s.indexes.Add(key, cloned)
	return nil
}

// DeleteByKey removes the item at (pk, sk) from the store and every index,
// returning a deep copy of the prior item if one existed.
func (s *State) DeleteByKey(pk, sk string) (core.Item, bool) {
	key := core.EncodeItemKey(pk, sk)
	prior, ok := s.items[key]
	if !ok {
		return nil, false
	}
	delete(s.items, key)
	s.indexes.Remove(key, prior)
	return prior.Clone(), true
}

// ScanItems returns deep copies of every item in ascending (PK, SK) order,
// optionally starting strictly after exclusiveStartPK/SK.
//
// Ordering is computed on the (PK, SK) tuple itself, not on the encoded
// item key string: the encoding's length prefix ("len(PK)+\":\"+PK+NUL+...")
// means two encoded keys can sort in an order that disagrees with their
// decoded (PK, SK) tuples whenever the PKs differ in length (e.g. PK="Z"
// encodes as "1:Z" and sorts before PK="AB", "2:AB").
func (s *State) ScanItems(exclusiveStartPK, exclusiveStartSK *string) []core.Item {
	items := make([]core.Item, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		pi, si, _ := keyOf(items[i])
		pj, sj, _ := keyOf(items[j])
		if pi != pj {
			return pi < pj
		}
		return si < sj
	})

	hasStart := exclusiveStartPK != nil && exclusiveStartSK != nil

	out := make([]core.Item, 0, len(items))
	for _, item := range items {
		if hasStart {
			pk, sk, _ := keyOf(item)
			if pk < *exclusiveStartPK || (pk == *exclusiveStartPK && sk <= *exclusiveStartSK) {
				continue
			}
		}
		out = append(out, item.Clone())
	}
	return out
}

// IndexSet exposes the underlying index set for query candidate iteration.
func (s *State) IndexSet() *indexset.IndexSet { return s.indexes }

// ItemByEncodedKey resolves a candidate's item key to a deep copy of the
// decoded item.
func (s *State) ItemByEncodedKey(key string) (core.Item, bool) {
	item, ok := s.items[key]
	if !ok {
		return nil, false
	}
	return item.Clone(), true
}

// Snapshot returns a mapping from "PK__SK" to a deep clone of the item.
// The result is a Go map and carries no order: ranging over it does not
// visit keys in primary-key order.
func (s *State) Snapshot() map[string]core.Item {
	out := make(map[string]core.Item, len(s.items))
	for _, item := range s.items {
		pk, sk, _ := keyOf(item)
		out[pk+"__"+sk] = item.Clone()
	}
	return out
}

// Clear empties the store and every index.
func (s *State) Clear() {
	s.items = make(map[string]core.Item)
	s.indexes.Clear()
}

// Len reports the number of items currently stored.
func (s *State) Len() int { return len(s.items) }

// Bounds and Direction are re-exported so callers of
// IndexSet().IterateCandidates don't need a second import of internal/treap.
type Bounds = treap.Bounds
type Direction = treap.Direction

const (
	Ascending  = treap.Ascending
	Descending = treap.Descending
)
