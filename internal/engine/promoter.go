package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Promoter bridges seat releases to waitlist promotion. Per schedule it
// moves Idle -> Evaluating -> (Promoted | Idle): on a release it
// inspects the waitlist head and, if someone is waiting, claims exactly
// one seat on their behalf. The Coordinator invokes it with the
// schedule's lock held, which is what keeps at most one promotion
// attempt in flight per schedule.
type Promoter struct {
	store Store
}

// NewPromoter returns a Promoter persisting promotions through store.
func NewPromoter(store Store) *Promoter {
	return &Promoter{store: store}
}

// Promote evaluates the waitlist of st and claims one seat for its head
// entry. It returns the reservation created for the promoted passenger,
// or nil when nobody was waiting or the freed seat was already taken by
// a concurrent direct booking; the latter is expected under contention,
// leaves the head waiting and is not an error. The caller must hold
// st.mu.
func (p *Promoter) Promote(ctx context.Context, st *scheduleState) (*Reservation, error) {
	head := st.waitlist.PeekHead()
	if head == nil {
		return nil, nil // seat stays free for direct booking
	}
	claimed, err := st.pool.TryClaim(head.PassengerID, 1)
	if err == ErrInsufficientCapacity {
		// Lost the seat to a direct booking before promotion ran.
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	res := claimed[0]
	res.BookingRef = uuid.NewString()
	if err := p.store.CreateReservations(ctx, claimed); err != nil {
		if _, relErr := st.pool.Release(res.SeatNumber); relErr != nil {
			return nil, fmt.Errorf("persist promotion: %w (and release failed: %v)", err, relErr)
		}
		return nil, fmt.Errorf("persist promotion: %w", err)
	}
	if err := st.waitlist.MarkPromoted(head.ID); err != nil {
		return nil, err
	}
	if err := p.store.UpdateWaitlistEntryStatus(ctx, head.ID, StatusPromoted); err != nil {
		// The reservation committed; report the lagging entry status
		// rather than unwinding a promotion the passenger already owns.
		return res, fmt.Errorf("persist promoted status: %w", err)
	}
	return res, nil
}
