package snapshot

import (
	"testing"

	"github.com/ocowchun/tindex/internal/core"
	"github.com/ocowchun/tindex/internal/table"
)

func TestBuildKeysByPKAndSK(t *testing.T) {
	s := table.New()
	_ = s.Put(core.Item{"PK": core.S("USER#1"), "SK": core.S("PROFILE#001"), "name": core.S("a")})
	_ = s.Put(core.Item{"PK": core.S("USER#1"), "SK": core.S("ORDER#001")})

	snap := Build(s)
	if len(snap) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(snap))
	}
	item, ok := snap["USER#1__PROFILE#001"]
	if !ok {
		t.Fatalf("expected USER#1__PROFILE#001 key")
	}
	if item["name"].S == nil || *item["name"].S != "a" {
		t.Fatalf("expected name=a, got %v", item["name"])
	}
}

func TestBuildReturnsDeepClonesNotLiveState(t *testing.T) {
	s := table.New()
	_ = s.Put(core.Item{"PK": core.S("K"), "SK": core.S("S"), "v": core.N("1")})

	snap := Build(s)
	snap["K__S"]["v"] = core.N("999")

	got, _ := s.CloneItemByKey("K", "S")
	if *got["v"].N != "1" {
		t.Fatalf("expected mutation of snapshot result to not affect stored state, got %v", got["v"])
	}
}
