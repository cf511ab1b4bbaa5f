package table

import (
	"testing"

	"github.com/ocowchun/tindex/internal/core"
	"github.com/ocowchun/tindex/internal/indexset"
)

func item(pk, sk string) core.Item {
	return core.Item{"PK": core.S(pk), "SK": core.S(sk)}
}

func itemsEqual(a, b core.Item) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		v2, ok := b[k]
		if !ok || !v.Equal(v2) {
			return false
		}
	}
	return true
}

func TestPutGetRoundTrip(t *testing.T) {
	s := New()
	if err := s.Put(item("A", "A")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := s.CloneItemByKey("A", "A")
	if !ok {
		t.Fatalf("expected item to be found")
	}
	if !itemsEqual(got, item("A", "A")) {
		t.Fatalf("got %v", got)
	}
}

func TestPutRejectsMissingKeyAttributes(t *testing.T) {
	s := New()
	err := s.Put(core.Item{"PK": core.S("A")})
	if err == nil {
		t.Fatalf("expected validation error for missing SK")
	}
}

func TestDeleteByKeyReturnsPriorItem(t *testing.T) {
	s := New()
	_ = s.Put(item("A", "A"))
	prior, ok := s.DeleteByKey("A", "A")
	if !ok {
		t.Fatalf("expected delete to find item")
	}
	if prior["PK"].S == nil || *prior["PK"].S != "A" {
		t.Fatalf("unexpected prior item: %v", prior)
	}
	if _, ok := s.CloneItemByKey("A", "A"); ok {
		t.Fatalf("expected item to be gone after delete")
	}
}

func TestScanItemsOrderedAscendingWithExclusiveStart(t *testing.T) {
	s := New()
	_ = s.Put(item("B", "B"))
	_ = s.Put(item("A", "A"))
	_ = s.Put(item("C", "C"))

	all := s.ScanItems(nil, nil)
	if len(all) != 3 {
		t.Fatalf("expected 3 items, got %d", len(all))
	}
	if *all[0]["PK"].S != "A" || *all[1]["PK"].S != "B" || *all[2]["PK"].S != "C" {
		t.Fatalf("expected ascending PK order, got %v", all)
	}

	startPK, startSK := "A", "A"
	rest := s.ScanItems(&startPK, &startSK)
	if len(rest) != 2 || *rest[0]["PK"].S != "B" {
		t.Fatalf("expected items after A strictly, got %v", rest)
	}
}

func TestScanItemsOrdersByDecodedPKNotEncodedKeyString(t *testing.T) {
	s := New()
	_ = s.Put(item("ZZZZZZZZZZZ", "S"))
	_ = s.Put(item("A", "S"))

	all := s.ScanItems(nil, nil)
	if len(all) != 2 {
		t.Fatalf("expected 2 items, got %d", len(all))
	}
	if *all[0]["PK"].S != "A" || *all[1]["PK"].S != "ZZZZZZZZZZZ" {
		t.Fatalf("expected PK=A before PK=ZZZZZZZZZZZ, got %v", all)
	}
}

func TestSnapshotFormat(t *testing.T) {
	s := New()
	_ = s.Put(item("A", "A"))
	snap := s.Snapshot()
	if _, ok := snap["A__A"]; !ok {
		t.Fatalf("expected snapshot key A__A, got %v", snap)
	}
}

func TestClear(t *testing.T) {
	s := New()
	_ = s.Put(item("A", "A"))
	s.Clear()
	if s.Len() != 0 {
		t.Fatalf("expected empty table after clear")
	}
}

func TestPutReplacesPriorIndexEntries(t *testing.T) {
	s := New()
	first := item("A", "A")
	first["GSI2PK"] = core.S("g1")
	first["GSI2SK"] = core.S("r1")
	_ = s.Put(first)

	second := item("A", "A")
	second["GSI2PK"] = core.S("g2")
	second["GSI2SK"] = core.S("r2")
	_ = s.Put(second)

	var foundOld, foundNew bool
	s.IndexSet().IterateCandidates("GSI2", "g1", Bounds{}, Ascending, nil, func(c indexset.Candidate) bool {
		foundOld = true
		return true
	})
	s.IndexSet().IterateCandidates("GSI2", "g2", Bounds{}, Ascending, nil, func(c indexset.Candidate) bool {
		foundNew = true
		return true
	})
	if foundOld {
		t.Fatalf("expected old GSI2 partition entry to be removed")
	}
	if !foundNew {
		t.Fatalf("expected new GSI2 partition entry to exist")
	}
}
