package app

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Relay/internal/domain"
)

func setupSeat(t *testing.T, c *SeatCoordinator, number uint32) (*domain.Car, *domain.Seat) {
	t.Helper()
	ctx := context.Background()
	car, err := c.CreateCar(ctx, "car-1")
	require.NoError(t, err)
	seat, err := c.CreateSeat(ctx, car.ID, number)
	require.NoError(t, err)
	return car, seat
}

func TestSeatCoordinator_Scenario(t *testing.T) {
	s := setupTestStore(t)
	ids := seedUsers(t, s, "a", "b")
	a, b := ids[0], ids[1]
	pub := &recordingPublisher{}
	c := NewSeatCoordinator(s, pub)
	ctx := context.Background()
	_, seat := setupSeat(t, c, 3)

	got, err := c.Claim(ctx, seat.ID, a)
	require.NoError(t, err)
	assert.True(t, got.OccupiedBy(a))

	_, err = c.Claim(ctx, seat.ID, b)
	assert.ErrorIs(t, err, domain.ErrConflict)

	got, err = c.Claim(ctx, seat.ID, a)
	require.NoError(t, err, "idempotent for the holder")
	assert.True(t, got.OccupiedBy(a))

	got, err = c.Release(ctx, seat.ID)
	require.NoError(t, err)
	assert.False(t, got.Occupied)
	assert.Nil(t, got.UserID)

	got, err = c.Claim(ctx, seat.ID, b)
	require.NoError(t, err)
	assert.True(t, got.OccupiedBy(b))

	assert.Len(t, pub.kinds(), 4)
}

func TestSeatCoordinator_ReleaseRegardlessOfOccupant(t *testing.T) {
	s := setupTestStore(t)
	ids := seedUsers(t, s, "a")
	c := NewSeatCoordinator(s, nil)
	ctx := context.Background()
	_, seat := setupSeat(t, c, 1)

	_, err := c.Claim(ctx, seat.ID, ids[0])
	require.NoError(t, err)

	got, err := c.Release(ctx, seat.ID)
	require.NoError(t, err)
	assert.False(t, got.Occupied)

	got, err = c.Release(ctx, seat.ID)
	require.NoError(t, err, "releasing a free seat")
	assert.False(t, got.Occupied)

	_, err = c.Release(ctx, 4242)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSeatCoordinator_ConcurrentClaims(t *testing.T) {
	s := setupTestStore(t)
	ids := seedUsers(t, s, "a", "b", "c", "d", "e", "f")
	c := NewSeatCoordinator(s, nil)
	_, seat := setupSeat(t, c, 1)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)
	for _, uid := range ids {
		wg.Add(1)
		go func(uid domain.UserID) {
			defer wg.Done()
			_, err := c.Claim(context.Background(), seat.ID, uid)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case assert.ErrorIs(t, err, domain.ErrConflict):
				conflicts++
			}
		}(uid)
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, len(ids)-1, conflicts)
}

func TestSeatCoordinator_CreateSeat(t *testing.T) {
	s := setupTestStore(t)
	c := NewSeatCoordinator(s, nil)
	ctx := context.Background()
	car, _ := setupSeat(t, c, 3)

	tests := []struct {
		name   string
		car    domain.CarID
		number uint32
		want   error
	}{
		{name: "duplicate number", car: car.ID, number: 3, want: domain.ErrConflict},
		{name: "unknown car", car: 4242, number: 1, want: domain.ErrNotFound},
		{name: "zero number", car: car.ID, number: 0, want: domain.ErrInvalidSeat},
		{name: "ok", car: car.ID, number: 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.CreateSeat(ctx, tt.car, tt.number)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}

	seats, err := c.ListSeats(ctx, car.ID)
	require.NoError(t, err)
	assert.Len(t, seats, 2)

	_, err = c.ListSeats(ctx, 4242)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = c.CreateCar(ctx, "  ")
	assert.ErrorIs(t, err, domain.ErrEmptyName)
}
