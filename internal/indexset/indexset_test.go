package indexset

import (
	"testing"

	"github.com/ocowchun/tindex/internal/core"
	"github.com/ocowchun/tindex/internal/treap"
)

func mkItem(pk, sk string) core.Item {
	return core.Item{"PK": core.S(pk), "SK": core.S(sk)}
}

func TestAddAndIteratePrimary(t *testing.T) {
	is := New()
	item := mkItem("USER#1", "ORDER#001")
	key := core.EncodeItemKey("USER#1", "ORDER#001")
	is.Add(key, item)

	var got []Candidate
	is.IterateCandidates("primary", "USER#1", treap.Bounds{}, treap.Ascending, nil, func(c Candidate) bool {
		got = append(got, c)
		return true
	})
	if len(got) != 1 || got[0].ItemKey != key {
		t.Fatalf("expected one candidate with item key %s, got %v", key, got)
	}
}

func TestItemWithoutGSIKeysSkipsGSI(t *testing.T) {
	is := New()
	item := mkItem("USER#1", "ORDER#001")
	key := core.EncodeItemKey("USER#1", "ORDER#001")
	is.Add(key, item)

	var got []Candidate
	is.IterateCandidates("GSI2", "USER#1", treap.Bounds{}, treap.Ascending, nil, func(c Candidate) bool {
		got = append(got, c)
		return true
	})
	if len(got) != 0 {
		t.Fatalf("expected no GSI2 candidates, got %v", got)
	}
}

func TestItemWithGSIKeysAppearsInGSI(t *testing.T) {
	is := New()
	item := mkItem("USER#1", "ORDER#001")
	item["GSI2PK"] = core.S("E#x@e.com")
	item["GSI2SK"] = core.S("ORDER#001")
	key := core.EncodeItemKey("USER#1", "ORDER#001")
	is.Add(key, item)

	var got []Candidate
	is.IterateCandidates("GSI2", "E#x@e.com", treap.Bounds{}, treap.Ascending, nil, func(c Candidate) bool {
		got = append(got, c)
		return true
	})
	if len(got) != 1 || got[0].ItemKey != key {
		t.Fatalf("expected one GSI2 candidate, got %v", got)
	}
}

func TestRemoveDropsEmptyPartitions(t *testing.T) {
	is := New()
	item := mkItem("USER#1", "ORDER#001")
	key := core.EncodeItemKey("USER#1", "ORDER#001")
	is.Add(key, item)
	is.Remove(key, item)

	var got []Candidate
	is.IterateCandidates("primary", "USER#1", treap.Bounds{}, treap.Ascending, nil, func(c Candidate) bool {
		got = append(got, c)
		return true
	})
	if len(got) != 0 {
		t.Fatalf("expected no candidates after remove, got %v", got)
	}
	if _, ok := is.partitions["primary"]["USER#1"]; ok {
		t.Fatalf("expected empty USER#1 partition to be dropped")
	}
}

func TestIterateCandidatesHonorsExclusiveStart(t *testing.T) {
	is := New()
	for _, sk := range []string{"ORDER#001", "ORDER#002", "ORDER#003"} {
		item := mkItem("USER#1", sk)
		is.Add(core.EncodeItemKey("USER#1", sk), item)
	}

	var got []string
	is.IterateCandidates("primary", "USER#1", treap.Bounds{}, treap.Ascending,
		&ExclusiveStart{RangeValue: "ORDER#001", ItemKey: core.EncodeItemKey("USER#1", "ORDER#001")},
		func(c Candidate) bool {
			got = append(got, c.RangeValue)
			return true
		})
	if len(got) != 2 || got[0] != "ORDER#002" || got[1] != "ORDER#003" {
		t.Fatalf("unexpected candidates after exclusive start: %v", got)
	}
}

func TestGSI1HasNoStorage(t *testing.T) {
	is := New()
	if _, ok := is.partitions["GSI1"]; ok {
		t.Fatalf("expected GSI1 to have no partition storage")
	}
}
