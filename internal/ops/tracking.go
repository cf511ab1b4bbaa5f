package ops

import "github.com/ocowchun/tindex/internal/txn"

// Tracking is the caller-facing handle for SPEC_FULL §4.6's change
// tracker: start_tracking/rollback spanning an arbitrary sequence of
// independent mutating calls (put/update/delete/batch_write/transact_write),
// orthogonal to the single-call atomicity transact_write already gets from
// its own internal txn.Processor.
type Tracking struct {
	svc     *Service
	tracker *txn.Tracker
}

// StartTracking begins recording every subsequent mutation against svc so
// it can later be rolled back as a unit, independent of transact_write's
// own per-call atomicity. Every mutating Service method records the
// pre-image of any key it touches into every currently active Tracking.
func (svc *Service) StartTracking() *Tracking {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	t := txn.StartTracking(svc.state)
	svc.trackers = append(svc.trackers, t)
	return &Tracking{svc: svc, tracker: t}
}

// SessionID identifies this tracking session, for correlating it with
// journal entries logged elsewhere.
func (tr *Tracking) SessionID() string {
	return tr.tracker.SessionID
}

// Rollback restores every key touched since StartTracking to its
// pre-tracking value and ends the session.
func (tr *Tracking) Rollback() {
	tr.svc.mu.Lock()
	defer tr.svc.mu.Unlock()

	tr.tracker.Rollback()
	tr.svc.stopTracking(tr.tracker)
}

// Commit discards the journal without undoing anything and ends the
// session; the mutations already applied stand.
func (tr *Tracking) Commit() {
	tr.svc.mu.Lock()
	defer tr.svc.mu.Unlock()

	tr.tracker.Commit()
	tr.svc.stopTracking(tr.tracker)
}

func (svc *Service) stopTracking(t *txn.Tracker) {
	for i, x := range svc.trackers {
		if x == t {
			svc.trackers = append(svc.trackers[:i], svc.trackers[i+1:]...)
			return
		}
	}
}

// recordBeforeWrite must be called by a mutating method while it already
// holds svc.mu for writing, immediately before the write it guards is
// applied to svc.state, for every key that write touches.
func (svc *Service) recordBeforeWrite(pk, sk string) {
	for _, t := range svc.trackers {
		t.RecordBeforeWrite(pk, sk)
	}
}
