package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/kmende/npi-registration/internal/app/models"
	"github.com/kmende/npi-registration/internal/pkg/apperrors"
)

// RoomService matches boarders to available rooms. Selection walks eligible
// rooms in ascending occupancy order; the store's conditional allocate
// settles races for the last slot, so occupancy can never exceed capacity.
type RoomService struct {
	roomStore RoomStore
	logger    zerolog.Logger
}

// NewRoomService creates a new room service
func NewRoomService(roomStore RoomStore, logger zerolog.Logger) *RoomService {
	return &RoomService{
		roomStore: roomStore,
		logger:    logger,
	}
}

// Allocate assigns the student a room matching the preference and gender
// constraints. Idempotent: an existing active allocation is returned as-is,
// which keeps resumed registrations from double-allocating. Returns
// ErrNoRoomAvailable, with no side effects, when nothing qualifies.
func (s *RoomService) Allocate(ctx context.Context, studentID int64, roomType models.RoomType, gender models.Gender) (*models.RoomAllocation, error) {
	existing, err := s.roomStore.GetActiveAllocationByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("error checking existing allocation: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	candidates, err := s.roomStore.FindCandidates(ctx, roomType, gender)
	if err != nil {
		return nil, fmt.Errorf("error finding candidate rooms: %w", err)
	}

	for _, room := range candidates {
		allocation, err := s.roomStore.TryAllocate(ctx, room.ID, studentID)
		if err != nil {
			return nil, fmt.Errorf("error allocating room %d: %w", room.ID, err)
		}
		if allocation == nil {
			// Lost the race for this room's last slot, try the next one
			s.logger.Debug().Int64("roomId", room.ID).Int64("studentId", studentID).Msg("Room filled concurrently, trying next candidate")
			continue
		}
		allocation.Room = room
		return allocation, nil
	}

	return nil, apperrors.ErrNoRoomAvailable
}
