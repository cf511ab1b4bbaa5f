package txn

import "github.com/ocowchun/tindex/internal/table"

// Status is the transact_write processor's explicit state, generalizing
// the teacher's inline transaction loop (ddb.Service.TransactWriteItems)
// into a named state machine: Collecting -> Applying -> Committed on
// success, or RollingBack -> Aborted the moment any item fails.
type Status uint8

const (
	Collecting Status = iota
	Applying
	Committed
	RollingBack
	Aborted
)

// Item is one unit of transactional work: apply runs the write (or
// condition check) and must call tracker.RecordBeforeWrite for every key
// it is about to mutate before mutating it.
type Item struct {
	Apply func(tracker *Tracker) error
}

// Processor runs a sequence of transactional items against state,
// committing all of them or rolling every one of them back.
type Processor struct {
	state   *table.State
	tracker *Tracker
	status  Status
}

// NewProcessor begins a Collecting-state processor over state.
func NewProcessor(state *table.State) *Processor {
	return &Processor{
		state:   state,
		tracker: StartTracking(state),
		status:  Collecting,
	}
}

// Status reports the processor's current state.
func (p *Processor) Status() Status { return p.status }

// SessionID identifies this processor's change-tracking session.
func (p *Processor) SessionID() string { return p.tracker.SessionID }

// Run applies items in order. On the first failure it rolls back every
// write applied so far (by any prior item in this run) and returns the
// failing item's index and error; on full success it commits.
func (p *Processor) Run(items []Item) (failedIndex int, err error) {
	p.status = Applying
	for i, item := range items {
		if applyErr := item.Apply(p.tracker); applyErr != nil {
			p.status = RollingBack
			p.tracker.Rollback()
			p.status = Aborted
			return i, applyErr
		}
	}
	p.tracker.Commit()
	p.status = Committed
	return -1, nil
}
