// Package txn implements the change-tracking and commit/rollback
// machinery that gives transact_write its all-or-nothing semantics
// (§4.6).
package txn

import (
	"github.com/google/uuid"

	"github.com/ocowchun/tindex/internal/core"
	"github.com/ocowchun/tindex/internal/table"
)

// journalEntry records the pre-image of one item-key slot immediately
// before a transactional write touches it, so the write can be undone.
type journalEntry struct {
	pk, sk   string
	hadPrior bool
	prior    core.Item
}

// Tracker records pre-images in insertion order as a transaction applies
// writes, and can roll every one of them back.
type Tracker struct {
	SessionID string

	state   *table.State
	journal []journalEntry
	seen    map[string]bool
}

// StartTracking begins a new change-tracking session against state.
func StartTracking(state *table.State) *Tracker {
	return &Tracker{
		SessionID: uuid.NewString(),
		state:     state,
		seen:      make(map[string]bool),
	}
}

// RecordBeforeWrite captures the current value at (pk, sk) the first time
// a transaction touches that key; later writes to the same key within the
// same transaction do not overwrite the original pre-image.
func (t *Tracker) RecordBeforeWrite(pk, sk string) {
	slot := pk + "\x00" + sk
	if t.seen[slot] {
		return
	}
	t.seen[slot] = true
	prior, ok := t.state.CloneItemByKey(pk, sk)
	t.journal = append(t.journal, journalEntry{pk: pk, sk: sk, hadPrior: ok, prior: prior})
}

// Rollback undoes every recorded write in reverse order, restoring each
// slot to its pre-transaction value.
func (t *Tracker) Rollback() {
	for i := len(t.journal) - 1; i >= 0; i-- {
		e := t.journal[i]
		if e.hadPrior {
			_ = t.state.Put(e.prior)
		} else {
			t.state.DeleteByKey(e.pk, e.sk)
		}
	}
	t.journal = nil
	t.seen = make(map[string]bool)
}

// Commit discards the journal; the writes already applied to state stand.
func (t *Tracker) Commit() {
	t.journal = nil
	t.seen = make(map[string]bool)
}
