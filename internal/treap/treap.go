// Package treap implements the ordered partition map described by the
// index engine: a balanced binary search tree over string entry keys whose
// shape is determined entirely by a content-derived priority, so the same
// set of entries always produces the same tree regardless of insertion
// order.
package treap

import (
	"crypto/sha256"
	"encoding/binary"
)

// Priority derives the stable treap priority for an entry from
// (indexName, hashKey, rangeKey, itemKey): the first 32 bits, big-endian,
// of the SHA-256 digest of the NUL-separated concatenation.
func Priority(indexName, hashKey, rangeKey, itemKey string) uint32 {
	h := sha256.New()
	h.Write([]byte(indexName))
	h.Write([]byte{0})
	h.Write([]byte(hashKey))
	h.Write([]byte{0})
	h.Write([]byte(rangeKey))
	h.Write([]byte{0})
	h.Write([]byte(itemKey))
	sum := h.Sum(nil)
	return binary.BigEndian.Uint32(sum[:4])
}

type node struct {
	entryKey string
	itemKey  string
	priority uint32
	left     *node
	right    *node
}

// Treap is an ordered map from entry key to item key.
type Treap struct {
	root *node
	size int
}

// New returns an empty Treap.
func New() *Treap {
	return &Treap{}
}

// Size reports the number of entries.
func (t *Treap) Size() int { return t.size }

// Has reports whether entryKey is present.
func (t *Treap) Has(entryKey string) bool {
	n := t.root
	for n != nil {
		switch {
		case entryKey == n.entryKey:
			return true
		case entryKey < n.entryKey:
			n = n.left
		default:
			n = n.right
		}
	}
	return false
}

// Get returns the item key stored for entryKey, if present.
func (t *Treap) Get(entryKey string) (string, bool) {
	n := t.root
	for n != nil {
		switch {
		case entryKey == n.entryKey:
			return n.itemKey, true
		case entryKey < n.entryKey:
			n = n.left
		default:
			n = n.right
		}
	}
	return "", false
}

// Insert adds or updates the mapping entryKey -> itemKey with the given
// priority. Re-inserting an existing entryKey updates its item key and
// priority without changing Size.
func (t *Treap) Insert(entryKey, itemKey string, priority uint32) {
	var existed bool
	t.root, existed = insert(t.root, entryKey, itemKey, priority)
	if !existed {
		t.size++
	}
}

func insert(n *node, entryKey, itemKey string, priority uint32) (*node, bool) {
	if n == nil {
		return &node{entryKey: entryKey, itemKey: itemKey, priority: priority}, false
	}
	if entryKey == n.entryKey {
		n.itemKey = itemKey
		n.priority = priority
		return n, true
	}
	var existed bool
	if entryKey < n.entryKey {
		n.left, existed = insert(n.left, entryKey, itemKey, priority)
		if n.left.priority > n.priority {
			n = rotateRight(n)
		}
	} else {
		n.right, existed = insert(n.right, entryKey, itemKey, priority)
		if n.right.priority > n.priority {
			n = rotateLeft(n)
		}
	}
	return n, existed
}

// Remove deletes entryKey if present.
func (t *Treap) Remove(entryKey string) {
	var removed bool
	t.root, removed = remove(t.root, entryKey)
	if removed {
		t.size--
	}
}

func remove(n *node, entryKey string) (*node, bool) {
	if n == nil {
		return nil, false
	}
	if entryKey < n.entryKey {
		var removed bool
		n.left, removed = remove(n.left, entryKey)
		return n, removed
	}
	if entryKey > n.entryKey {
		var removed bool
		n.right, removed = remove(n.right, entryKey)
		return n, removed
	}
	return mergeChildren(n.left, n.right), true
}

func mergeChildren(l, r *node) *node {
	if l == nil {
		return r
	}
	if r == nil {
		return l
	}
	if l.priority > r.priority {
		l.right = mergeChildren(l.right, r)
		return l
	}
	r.left = mergeChildren(l, r.left)
	return r
}

func rotateRight(n *node) *node {
	l := n.left
	n.left = l.right
	l.right = n
	return l
}

func rotateLeft(n *node) *node {
	r := n.right
	n.right = r.left
	r.left = n
	return r
}

// Clear empties the treap.
func (t *Treap) Clear() {
	t.root = nil
	t.size = 0
}

// Direction selects ascending or descending iteration.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

// Bound is an optional inclusive/exclusive iteration boundary.
type Bound struct {
	Key       string
	Inclusive bool
	Set       bool
}

// Bounds restricts an Iterate call to the half-open (or closed) range
// [Lower, Upper] on entry key, honoring inclusivity per bound.
type Bounds struct {
	Lower Bound
	Upper Bound
}

// Entry is one (entryKey, itemKey) pair yielded by Iterate.
type Entry struct {
	EntryKey string
	ItemKey  string
}

// Iterate walks entries in the given direction within bounds, calling fn
// for each. Iteration stops early if fn returns false.
func (t *Treap) Iterate(dir Direction, bounds Bounds, fn func(Entry) bool) {
	iterate(t.root, dir, bounds, fn)
}

func iterate(n *node, dir Direction, b Bounds, fn func(Entry) bool) bool {
	if n == nil {
		return true
	}
	belowLower := b.Lower.Set && (n.entryKey < b.Lower.Key || (n.entryKey == b.Lower.Key && !b.Lower.Inclusive))
	aboveUpper := b.Upper.Set && (n.entryKey > b.Upper.Key || (n.entryKey == b.Upper.Key && !b.Upper.Inclusive))

	if dir == Ascending {
		if !belowLower {
			if !iterate(n.left, dir, b, fn) {
				return false
			}
		}
		if !belowLower && !aboveUpper {
			if !fn(Entry{EntryKey: n.entryKey, ItemKey: n.itemKey}) {
				return false
			}
		}
		if !aboveUpper {
			if !iterate(n.right, dir, b, fn) {
				return false
			}
		}
	} else {
		if !aboveUpper {
			if !iterate(n.right, dir, b, fn) {
				return false
			}
		}
		if !belowLower && !aboveUpper {
			if !fn(Entry{EntryKey: n.entryKey, ItemKey: n.itemKey}) {
				return false
			}
		}
		if !belowLower {
			if !iterate(n.left, dir, b, fn) {
				return false
			}
		}
	}
	return true
}
