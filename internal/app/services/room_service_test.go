package services

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/kmende/npi-registration/internal/app/models"
	"github.com/kmende/npi-registration/internal/pkg/apperrors"
)

func maleRoom(id int64, number string, capacity, occupancy int) *models.Room {
	g := models.GenderMale
	return &models.Room{
		ID: id, RoomNumber: number, RoomType: models.RoomTypeShared,
		Capacity: capacity, CurrentOccupancy: occupancy,
		GenderRestriction: &g, IsAvailable: true,
	}
}

func TestAllocatePrefersLowestOccupancy(t *testing.T) {
	rooms := newMemRooms()
	rooms.addRoom(maleRoom(1, "A-101", 4, 3))
	rooms.addRoom(maleRoom(2, "A-102", 4, 1))
	svc := NewRoomService(rooms, zerolog.Nop())

	alloc, err := svc.Allocate(context.Background(), 10, models.RoomTypeShared, models.GenderMale)
	require.NoError(t, err)

	assert.Equal(t, int64(2), alloc.RoomID)
	assert.True(t, alloc.IsActive)
}

func TestAllocateHonorsGenderRestriction(t *testing.T) {
	rooms := newMemRooms()
	rooms.addRoom(maleRoom(1, "A-101", 4, 0))
	svc := NewRoomService(rooms, zerolog.Nop())

	_, err := svc.Allocate(context.Background(), 10, models.RoomTypeShared, models.GenderFemale)
	require.ErrorIs(t, err, apperrors.ErrNoRoomAvailable)
}

func TestAllocateUnrestrictedRoomServesAnyGender(t *testing.T) {
	rooms := newMemRooms()
	rooms.addRoom(&models.Room{ID: 1, RoomNumber: "C-101", RoomType: models.RoomTypeSingle, Capacity: 1, IsAvailable: true})
	svc := NewRoomService(rooms, zerolog.Nop())

	alloc, err := svc.Allocate(context.Background(), 10, models.RoomTypeSingle, models.GenderFemale)
	require.NoError(t, err)
	assert.Equal(t, int64(1), alloc.RoomID)
}

func TestAllocateNoCapacityLeft(t *testing.T) {
	rooms := newMemRooms()
	rooms.addRoom(maleRoom(1, "A-101", 2, 2))
	svc := NewRoomService(rooms, zerolog.Nop())

	_, err := svc.Allocate(context.Background(), 10, models.RoomTypeShared, models.GenderMale)
	require.ErrorIs(t, err, apperrors.ErrNoRoomAvailable)
}

func TestAllocateIdempotentForAllocatedStudent(t *testing.T) {
	rooms := newMemRooms()
	rooms.addRoom(maleRoom(1, "A-101", 4, 0))
	svc := NewRoomService(rooms, zerolog.Nop())

	first, err := svc.Allocate(context.Background(), 10, models.RoomTypeShared, models.GenderMale)
	require.NoError(t, err)

	second, err := svc.Allocate(context.Background(), 10, models.RoomTypeShared, models.GenderMale)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, rooms.occupancy(1))
}

func TestAllocateConcurrentNeverExceedsCapacity(t *testing.T) {
	rooms := newMemRooms()
	rooms.addRoom(maleRoom(1, "A-101", 4, 0))
	rooms.addRoom(maleRoom(2, "A-102", 4, 0))
	svc := NewRoomService(rooms, zerolog.Nop())

	const students = 20 // more than the 8 total slots

	results := make(chan error, students)
	g := new(errgroup.Group)
	for i := 0; i < students; i++ {
		studentID := int64(100 + i)
		g.Go(func() error {
			_, err := svc.Allocate(context.Background(), studentID, models.RoomTypeShared, models.GenderMale)
			results <- err
			return nil
		})
	}
	require.NoError(t, g.Wait())
	close(results)

	allocated, unplaced := 0, 0
	for err := range results {
		switch {
		case err == nil:
			allocated++
		case errors.Is(err, apperrors.ErrNoRoomAvailable):
			unplaced++
		default:
			t.Fatalf("unexpected allocation error: %v", err)
		}
	}

	assert.Equal(t, 8, allocated)
	assert.Equal(t, 12, unplaced)
	assert.LessOrEqual(t, rooms.occupancy(1), 4)
	assert.LessOrEqual(t, rooms.occupancy(2), 4)
}
