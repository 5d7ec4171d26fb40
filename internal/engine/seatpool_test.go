package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeatPool_TryClaim_LowestSeatsFirst(t *testing.T) {
	p := NewSeatPool(1, 5)

	claimed, err := p.TryClaim(42, 2)
	require.NoError(t, err)
	require.Len(t, claimed, 2)
	assert.Equal(t, uint32(1), claimed[0].SeatNumber)
	assert.Equal(t, uint32(2), claimed[1].SeatNumber)
	assert.Equal(t, 3, p.FreeCount())
}

func TestSeatPool_TryClaim_FillsGapsFirst(t *testing.T) {
	p := NewSeatPool(1, 4)

	_, err := p.TryClaim(1, 3) // seats 1..3
	require.NoError(t, err)
	_, err = p.Release(2)
	require.NoError(t, err)

	claimed, err := p.TryClaim(2, 2)
	require.NoError(t, err)
	require.Len(t, claimed, 2)
	assert.Equal(t, uint32(2), claimed[0].SeatNumber)
	assert.Equal(t, uint32(4), claimed[1].SeatNumber)
}

func TestSeatPool_TryClaim_AllOrNothing(t *testing.T) {
	p := NewSeatPool(1, 3)

	_, err := p.TryClaim(1, 2)
	require.NoError(t, err)

	_, err = p.TryClaim(2, 2)
	assert.ErrorIs(t, err, ErrInsufficientCapacity)
	// The failed claim must not have touched the remaining seat.
	assert.Equal(t, 1, p.FreeCount())

	claimed, err := p.TryClaim(2, 1)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), claimed[0].SeatNumber)
}

func TestSeatPool_TryClaim_RejectsNonPositiveCount(t *testing.T) {
	p := NewSeatPool(1, 3)

	_, err := p.TryClaim(1, 0)
	assert.ErrorIs(t, err, ErrInsufficientCapacity)
	_, err = p.TryClaim(1, -1)
	assert.ErrorIs(t, err, ErrInsufficientCapacity)
}

func TestSeatPool_Release(t *testing.T) {
	p := NewSeatPool(1, 3)

	claimed, err := p.TryClaim(7, 1)
	require.NoError(t, err)

	held, err := p.Release(claimed[0].SeatNumber)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), held.PassengerID)
	assert.Equal(t, 3, p.FreeCount())

	_, err = p.Release(claimed[0].SeatNumber)
	assert.ErrorIs(t, err, ErrSeatNotOccupied)

	_, err = p.Release(0)
	assert.ErrorIs(t, err, ErrUnknownSeat)
	_, err = p.Release(4)
	assert.ErrorIs(t, err, ErrUnknownSeat)
}

func TestSeatPool_Restore(t *testing.T) {
	p := NewSeatPool(1, 3)

	require.NoError(t, p.Restore(Reservation{ID: 5, ScheduleID: 1, PassengerID: 9, SeatNumber: 2}))
	assert.Equal(t, 2, p.FreeCount())

	assert.ErrorIs(t, p.Restore(Reservation{SeatNumber: 2}), ErrSeatNotOccupied)
	assert.ErrorIs(t, p.Restore(Reservation{SeatNumber: 4}), ErrUnknownSeat)
}

func TestSeatPool_Snapshot(t *testing.T) {
	p := NewSeatPool(1, 4)

	_, err := p.TryClaim(3, 1) // seat 1
	require.NoError(t, err)
	_, err = p.TryClaim(4, 2) // seats 2, 3
	require.NoError(t, err)
	_, err = p.Release(2)
	require.NoError(t, err)

	av := p.Snapshot()
	assert.Equal(t, uint64(1), av.ScheduleID)
	assert.Equal(t, uint32(4), av.Capacity)
	assert.Equal(t, []uint32{2, 4}, av.Free)
	require.Len(t, av.Occupied, 2)
	assert.Equal(t, uint32(1), av.Occupied[0].SeatNumber)
	assert.Equal(t, uint64(3), av.Occupied[0].PassengerID)
	assert.Equal(t, uint32(3), av.Occupied[1].SeatNumber)
	assert.Equal(t, uint64(4), av.Occupied[1].PassengerID)
}
