package txn

import (
	"errors"
	"testing"

	"github.com/ocowchun/tindex/internal/core"
	"github.com/ocowchun/tindex/internal/table"
)

func itemAt(pk, sk string) core.Item {
	return core.Item{"PK": core.S(pk), "SK": core.S(sk)}
}

func TestProcessorCommitsAllOnSuccess(t *testing.T) {
	s := table.New()
	p := NewProcessor(s)

	items := []Item{
		{Apply: func(tr *Tracker) error {
			tr.RecordBeforeWrite("A", "A")
			return s.Put(itemAt("A", "A"))
		}},
		{Apply: func(tr *Tracker) error {
			tr.RecordBeforeWrite("B", "B")
			return s.Put(itemAt("B", "B"))
		}},
	}

	idx, err := p.Run(items)
	if err != nil || idx != -1 {
		t.Fatalf("unexpected failure: idx=%d err=%v", idx, err)
	}
	if p.Status() != Committed {
		t.Fatalf("expected Committed, got %v", p.Status())
	}
	if _, ok := s.CloneItemByKey("A", "A"); !ok {
		t.Fatalf("expected A/A to exist")
	}
	if _, ok := s.CloneItemByKey("B", "B"); !ok {
		t.Fatalf("expected B/B to exist")
	}
}

func TestProcessorRollsBackAllOnFailure(t *testing.T) {
	s := table.New()
	_ = s.Put(itemAt("A", "A"))

	p := NewProcessor(s)
	items := []Item{
		{Apply: func(tr *Tracker) error {
			tr.RecordBeforeWrite("A", "A")
			updated := itemAt("A", "A")
			updated["touched"] = core.Bool(true)
			return s.Put(updated)
		}},
		{Apply: func(tr *Tracker) error {
			tr.RecordBeforeWrite("C", "C")
			return errors.New("condition check failed")
		}},
	}

	idx, err := p.Run(items)
	if err == nil || idx != 1 {
		t.Fatalf("expected failure at index 1, got idx=%d err=%v", idx, err)
	}
	if p.Status() != Aborted {
		t.Fatalf("expected Aborted, got %v", p.Status())
	}

	got, ok := s.CloneItemByKey("A", "A")
	if !ok {
		t.Fatalf("expected A/A to still exist after rollback")
	}
	if _, touched := got["touched"]; touched {
		t.Fatalf("expected A/A to be restored to its pre-transaction value, got %v", got)
	}
	if _, ok := s.CloneItemByKey("C", "C"); ok {
		t.Fatalf("expected C/C to not exist after rollback")
	}
}

func TestTrackerRecordsPreImageOnceOnly(t *testing.T) {
	s := table.New()
	_ = s.Put(itemAt("A", "A"))

	tr := StartTracking(s)
	tr.RecordBeforeWrite("A", "A")
	updated := itemAt("A", "A")
	updated["v"] = core.N("1")
	_ = s.Put(updated)

	tr.RecordBeforeWrite("A", "A")
	updated2 := itemAt("A", "A")
	updated2["v"] = core.N("2")
	_ = s.Put(updated2)

	tr.Rollback()

	got, ok := s.CloneItemByKey("A", "A")
	if !ok {
		t.Fatalf("expected A/A to exist")
	}
	if _, hasV := got["v"]; hasV {
		t.Fatalf("expected rollback to restore original pre-transaction item, got %v", got)
	}
}
