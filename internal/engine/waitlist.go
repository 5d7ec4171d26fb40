package engine

// Waitlist entry statuses. An entry starts WAITING and moves exactly
// once to PROMOTED or CANCELLED; terminal states are never revisited.
const (
	StatusWaiting   = "WAITING"
	StatusPromoted  = "PROMOTED"
	StatusCancelled = "CANCELLED"
)

// WaitlistEntry records one passenger waiting for a seat on one
// schedule. Position is assigned at enrollment time from an append-only
// per-schedule counter and is never reused, even after cancellations, so
// positions always reflect true arrival order.
type WaitlistEntry struct {
	ID          uint64 // waitlist_entries.id, zero until persisted
	ScheduleID  uint64 // schedule being waited on
	PassengerID uint64 // waiting passenger
	Position    uint64 // strictly increasing per schedule
	Status      string // WAITING, PROMOTED or CANCELLED
}

// Waitlist maintains the strict arrival-ordered queue for one schedule.
// Like SeatPool it is not safe for concurrent use on its own; the
// Coordinator serializes access per schedule.
type Waitlist struct {
	scheduleID uint64
	nextPos    uint64
	entries    []*WaitlistEntry // ascending by Position, terminal entries included
}

// NewWaitlist returns an empty waitlist whose first enrollment receives
// position 1.
func NewWaitlist(scheduleID uint64) *Waitlist {
	return &Waitlist{scheduleID: scheduleID, nextPos: 1}
}

// Restore appends an entry loaded from the store during hydration.
// Entries must arrive in ascending position order. The position counter
// resumes past the highest position ever assigned so cancelled or
// promoted entries never free up their positions.
func (w *Waitlist) Restore(e WaitlistEntry) {
	entry := e
	w.entries = append(w.entries, &entry)
	if e.Position >= w.nextPos {
		w.nextPos = e.Position + 1
	}
}

// Enroll appends a new WAITING entry for the passenger and returns it.
// A passenger with an existing waiting entry is rejected with
// ErrAlreadyWaiting; past terminal entries do not block re-enrollment.
func (w *Waitlist) Enroll(passengerID uint64) (*WaitlistEntry, error) {
	if w.waiting(passengerID) != nil {
		return nil, ErrAlreadyWaiting
	}
	e := &WaitlistEntry{
		ScheduleID:  w.scheduleID,
		PassengerID: passengerID,
		Position:    w.nextPos,
		Status:      StatusWaiting,
	}
	w.nextPos++
	w.entries = append(w.entries, e)
	return e, nil
}

// PeekHead returns the lowest-position entry still WAITING, or nil when
// nobody is waiting.
func (w *Waitlist) PeekHead() *WaitlistEntry {
	for _, e := range w.entries {
		if e.Status == StatusWaiting {
			return e
		}
	}
	return nil
}

// MarkPromoted moves the entry to its PROMOTED terminal state. It fails
// with ErrAlreadyTerminal when the entry has already left WAITING so
// double promotions surface as bugs instead of silent no-ops.
func (w *Waitlist) MarkPromoted(entryID uint64) error {
	return w.transition(entryID, StatusPromoted)
}

// MarkCancelled moves the entry to its CANCELLED terminal state, with
// the same ErrAlreadyTerminal semantics as MarkPromoted.
func (w *Waitlist) MarkCancelled(entryID uint64) error {
	return w.transition(entryID, StatusCancelled)
}

func (w *Waitlist) transition(entryID uint64, status string) error {
	for _, e := range w.entries {
		if e.ID != entryID {
			continue
		}
		if e.Status != StatusWaiting {
			return ErrAlreadyTerminal
		}
		e.Status = status
		return nil
	}
	return ErrNotWaiting
}

// rollbackEnroll removes an entry whose persistence failed so the
// position can be handed out again. Only the most recent enrollment can
// be rolled back; committed positions are never reused.
func (w *Waitlist) rollbackEnroll(e *WaitlistEntry) {
	n := len(w.entries)
	if n > 0 && w.entries[n-1] == e {
		w.entries = w.entries[:n-1]
		w.nextPos = e.Position
	}
}

// Waiting returns the passenger's current WAITING entry together with
// the number of waiting entries ahead of it, or ErrNotWaiting.
func (w *Waitlist) Waiting(passengerID uint64) (*WaitlistEntry, int, error) {
	e := w.waiting(passengerID)
	if e == nil {
		return nil, 0, ErrNotWaiting
	}
	ahead := 0
	for _, other := range w.entries {
		if other.Status == StatusWaiting && other.Position < e.Position {
			ahead++
		}
	}
	return e, ahead, nil
}

func (w *Waitlist) waiting(passengerID uint64) *WaitlistEntry {
	for _, e := range w.entries {
		if e.PassengerID == passengerID && e.Status == StatusWaiting {
			return e
		}
	}
	return nil
}
