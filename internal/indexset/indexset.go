// Package indexset maintains, per named index, a mapping from hash value
// to an ordered partition map (internal/treap), synchronized with table
// mutations (§4.2).
package indexset

import (
	"github.com/ocowchun/tindex/internal/core"
	"github.com/ocowchun/tindex/internal/manifest"
	"github.com/ocowchun/tindex/internal/treap"
)

// Candidate is one query/scan result candidate yielded during iteration.
type Candidate struct {
	ItemKey    string
	RangeValue string
}

// IndexSet owns one partition registry per recognized index.
type IndexSet struct {
	// partitions[indexName][hashValue] -> ordered map of entryKey -> itemKey
	partitions map[string]map[string]*treap.Treap
}

// New returns an empty IndexSet covering every name in manifest.IndexNames
// except the excluded GSI1 (which is recognized elsewhere but never given
// storage here).
func New() *IndexSet {
	is := &IndexSet{partitions: make(map[string]map[string]*treap.Treap)}
	for _, name := range manifest.IndexNames() {
		if manifest.IsExcludedIndex(name) {
			continue
		}
		is.partitions[name] = make(map[string]*treap.Treap)
	}
	return is
}

func hashRangeOf(indexName string, item core.Item) (hash, rng string, ok bool) {
	hashAttr, rangeAttr := manifest.HashRangeAttrNames(indexName)
	hv, hok := item[hashAttr]
	rv, rok := item[rangeAttr]
	if !hok || !rok || hv.S == nil || rv.S == nil {
		return "", "", false
	}
	return *hv.S, *rv.S, true
}

// Add inserts itemKey into every index for which item carries a valid
// string hash/range pair.
func (is *IndexSet) Add(itemKey string, item core.Item) {
	for indexName, partitions := range is.partitions {
		hash, rng, ok := hashRangeOf(indexName, item)
		if !ok {
			continue
		}
		p, ok := partitions[hash]
		if !ok {
			p = treap.New()
			partitions[hash] = p
		}
		entryKey := core.EncodeIndexEntryKey(rng, itemKey)
		priority := treap.Priority(indexName, hash, rng, itemKey)
		p.Insert(entryKey, itemKey, priority)
	}
}

// Remove mirrors Add: removes itemKey's entries, dropping empty partitions.
func (is *IndexSet) Remove(itemKey string, item core.Item) {
	for indexName, partitions := range is.partitions {
		hash, rng, ok := hashRangeOf(indexName, item)
		if !ok {
			continue
		}
		p, ok := partitions[hash]
		if !ok {
			continue
		}
		entryKey := core.EncodeIndexEntryKey(rng, itemKey)
		p.Remove(entryKey)
		if p.Size() == 0 {
			delete(partitions, hash)
		}
	}
}

// ExclusiveStart identifies a prior position to resume iteration after.
type ExclusiveStart struct {
	RangeValue string
	ItemKey    string
}

// IterateCandidates yields item keys from the named index's hash partition
// in order, honoring bounds and an optional exclusive start position.
func (is *IndexSet) IterateCandidates(indexName, hash string, bounds treap.Bounds, dir treap.Direction, exclusiveStart *ExclusiveStart, fn func(Candidate) bool) {
	partitions, ok := is.partitions[indexName]
	if !ok {
		return
	}
	p, ok := partitions[hash]
	if !ok {
		return
	}

	if exclusiveStart != nil {
		startKey := core.EncodeIndexEntryKey(exclusiveStart.RangeValue, exclusiveStart.ItemKey)
		if dir == treap.Ascending {
			if !bounds.Lower.Set || startKey > bounds.Lower.Key || (startKey == bounds.Lower.Key && !bounds.Lower.Inclusive) {
				bounds.Lower = treap.Bound{Key: startKey, Inclusive: false, Set: true}
			}
		} else {
			if !bounds.Upper.Set || startKey < bounds.Upper.Key || (startKey == bounds.Upper.Key && !bounds.Upper.Inclusive) {
				bounds.Upper = treap.Bound{Key: startKey, Inclusive: false, Set: true}
			}
		}
	}

	p.Iterate(dir, bounds, func(e treap.Entry) bool {
		rangeValue := e.EntryKey[:len(e.EntryKey)-len("\x00"+e.ItemKey)]
		return fn(Candidate{ItemKey: e.ItemKey, RangeValue: rangeValue})
	})
}

// Clear empties every partition.
func (is *IndexSet) Clear() {
	for name := range is.partitions {
		is.partitions[name] = make(map[string]*treap.Treap)
	}
}
