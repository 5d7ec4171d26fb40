package engine

// Reservation is a committed claim binding one seat on one schedule to
// one passenger. ID is assigned by the store when the claim is
// persisted; BookingRef is the opaque reference handed to passengers.
type Reservation struct {
	ID          uint64 // reservations.id, zero until persisted
	BookingRef  string // opaque booking reference (uuid)
	ScheduleID  uint64 // schedule the seat belongs to
	PassengerID uint64 // owning passenger
	SeatNumber  uint32 // seat number in [1, capacity]
}

// SeatView describes one occupied seat in an availability snapshot.
type SeatView struct {
	SeatNumber  uint32 `json:"seat_number"`
	PassengerID uint64 `json:"passenger_id"`
	BookingRef  string `json:"booking_ref"`
}

// Availability is a read-only snapshot of a schedule's seat map. It is
// advisory: by the time a caller acts on it the pool may have changed.
// Only a claim through the Coordinator is authoritative.
type Availability struct {
	ScheduleID uint64     `json:"schedule_id"`
	Capacity   uint32     `json:"capacity"`
	Free       []uint32   `json:"free"`
	Occupied   []SeatView `json:"occupied"`
}

// SeatPool holds the authoritative free/occupied state of every seat for
// one schedule. Seat numbers run from 1 to the fixed capacity. The pool
// itself is not safe for concurrent use; the Coordinator serializes all
// access under the schedule's lock.
type SeatPool struct {
	scheduleID uint64
	capacity   uint32
	occupied   map[uint32]*Reservation
}

// NewSeatPool returns an empty pool for a schedule with the given fixed
// capacity. All seats start free.
func NewSeatPool(scheduleID uint64, capacity uint32) *SeatPool {
	return &SeatPool{
		scheduleID: scheduleID,
		capacity:   capacity,
		occupied:   make(map[uint32]*Reservation, capacity),
	}
}

// Capacity returns the fixed seat count of the schedule.
func (p *SeatPool) Capacity() uint32 { return p.capacity }

// FreeCount returns how many seats are currently free.
func (p *SeatPool) FreeCount() int { return int(p.capacity) - len(p.occupied) }

// TryClaim atomically transitions count free seats to occupied for the
// passenger, always picking the lowest free seat numbers first. It
// returns ErrInsufficientCapacity without claiming anything when fewer
// than count seats are free, so no partial claim is ever left
// outstanding from the call itself. The returned reservations carry no
// ID or booking reference yet; the Coordinator fills those in.
func (p *SeatPool) TryClaim(passengerID uint64, count int) ([]*Reservation, error) {
	if count <= 0 || p.FreeCount() < count {
		return nil, ErrInsufficientCapacity
	}
	claimed := make([]*Reservation, 0, count)
	for seat := uint32(1); seat <= p.capacity && len(claimed) < count; seat++ {
		if _, taken := p.occupied[seat]; taken {
			continue
		}
		r := &Reservation{
			ScheduleID:  p.scheduleID,
			PassengerID: passengerID,
			SeatNumber:  seat,
		}
		p.occupied[seat] = r
		claimed = append(claimed, r)
	}
	return claimed, nil
}

// Release transitions one occupied seat back to free and returns the
// reservation that held it. It fails with ErrUnknownSeat when the seat
// number lies outside [1, capacity] and with ErrSeatNotOccupied when the
// seat is already free.
func (p *SeatPool) Release(seat uint32) (*Reservation, error) {
	if seat < 1 || seat > p.capacity {
		return nil, ErrUnknownSeat
	}
	r, ok := p.occupied[seat]
	if !ok {
		return nil, ErrSeatNotOccupied
	}
	delete(p.occupied, seat)
	return r, nil
}

// Restore places a committed reservation back into the pool during
// hydration from the store. A reservation pointing at an out-of-range
// or already-occupied seat means the durable state is corrupt.
func (p *SeatPool) Restore(r Reservation) error {
	if r.SeatNumber < 1 || r.SeatNumber > p.capacity {
		return ErrUnknownSeat
	}
	if _, taken := p.occupied[r.SeatNumber]; taken {
		return ErrSeatNotOccupied
	}
	res := r
	p.occupied[r.SeatNumber] = &res
	return nil
}

// Snapshot returns the current seat map. Free seats are listed in
// ascending order, occupied seats likewise, so responses are
// deterministic and easy to diff.
func (p *SeatPool) Snapshot() Availability {
	av := Availability{
		ScheduleID: p.scheduleID,
		Capacity:   p.capacity,
		Free:       make([]uint32, 0, p.FreeCount()),
		Occupied:   make([]SeatView, 0, len(p.occupied)),
	}
	for seat := uint32(1); seat <= p.capacity; seat++ {
		if r, taken := p.occupied[seat]; taken {
			av.Occupied = append(av.Occupied, SeatView{
				SeatNumber:  seat,
				PassengerID: r.PassengerID,
				BookingRef:  r.BookingRef,
			})
		} else {
			av.Free = append(av.Free, seat)
		}
	}
	return av
}
