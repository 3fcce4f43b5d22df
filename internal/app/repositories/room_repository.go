package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kmende/npi-registration/internal/app/models"
	"github.com/kmende/npi-registration/internal/db"
	"github.com/kmende/npi-registration/internal/pkg/apperrors"
	"github.com/kmende/npi-registration/internal/pkg/dberrors"
)

// RoomRepository handles database operations for dormitory inventory
type RoomRepository struct {
	db *pgxpool.Pool
}

// NewRoomRepository creates a new room repository
func NewRoomRepository(db *pgxpool.Pool) *RoomRepository {
	return &RoomRepository{
		db: db,
	}
}

// FindCandidates returns rooms eligible for the given preference and gender,
// ascending by occupancy so partially filled rooms are consolidated first.
func (r *RoomRepository) FindCandidates(ctx context.Context, roomType models.RoomType, gender models.Gender) ([]*models.Room, error) {
	query := `
		SELECT id, room_number, room_type, capacity, current_occupancy, gender_restriction, is_available
		FROM rooms
		WHERE room_type = $1
			AND is_available = TRUE
			AND current_occupancy < capacity
			AND (gender_restriction IS NULL OR gender_restriction = $2)
		ORDER BY current_occupancy ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, roomType, gender)
	if err != nil {
		return nil, normalizeError(err)
	}
	defer rows.Close()

	var rooms []*models.Room
	for rows.Next() {
		var room models.Room
		if err := rows.Scan(
			&room.ID,
			&room.RoomNumber,
			&room.RoomType,
			&room.Capacity,
			&room.CurrentOccupancy,
			&room.GenderRestriction,
			&room.IsAvailable,
		); err != nil {
			return nil, err
		}
		rooms = append(rooms, &room)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return rooms, nil
}

// TryAllocate couples the occupancy increment and the allocation insert in
// one transaction. The occupancy update re-checks capacity in its predicate,
// so a submission that lost the race for the last slot affects zero rows and
// the caller moves on to the next candidate. Returns nil, nil on a lost race.
func (r *RoomRepository) TryAllocate(ctx context.Context, roomID, studentID int64) (*models.RoomAllocation, error) {
	var allocation *models.RoomAllocation

	err := db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		updateQuery := `
			UPDATE rooms
			SET current_occupancy = current_occupancy + 1
			WHERE id = $1
				AND is_available = TRUE
				AND current_occupancy < capacity
		`

		cmdTag, err := tx.Exec(ctx, updateQuery, roomID)
		if err != nil {
			if dberrors.IsCheckViolation(err, "rooms_occupancy_within_capacity") {
				return apperrors.NewInvariantViolationError(
					fmt.Sprintf("occupancy overflow on room %d", roomID))
			}
			return err
		}

		if cmdTag.RowsAffected() == 0 {
			// Room filled up between candidate selection and this write
			return errRoomFilled
		}

		insertQuery := `
			INSERT INTO room_allocations (student_id, room_id, allocated_date, is_active, fee_paid)
			VALUES ($1, $2, $3, TRUE, FALSE)
			RETURNING id
		`

		alloc := &models.RoomAllocation{
			StudentID:     studentID,
			RoomID:        roomID,
			AllocatedDate: time.Now(),
			IsActive:      true,
			FeePaid:       false,
		}

		if err := tx.QueryRow(ctx, insertQuery, studentID, roomID, alloc.AllocatedDate).Scan(&alloc.ID); err != nil {
			return err
		}

		allocation = alloc
		return nil
	})

	if err != nil {
		if errors.Is(err, errRoomFilled) {
			return nil, nil
		}
		return nil, normalizeError(err)
	}

	return allocation, nil
}

// errRoomFilled is internal to the allocate transaction; it triggers the
// rollback of the occupancy increment when the insert cannot proceed.
var errRoomFilled = errors.New("room filled concurrently")

// GetActiveAllocationByStudent retrieves the student's active allocation with
// the room attached. Used by resumes to keep allocation idempotent.
func (r *RoomRepository) GetActiveAllocationByStudent(ctx context.Context, studentID int64) (*models.RoomAllocation, error) {
	query := `
		SELECT a.id, a.student_id, a.room_id, a.allocated_date, a.is_active, a.fee_paid,
			rm.id, rm.room_number, rm.room_type, rm.capacity, rm.current_occupancy, rm.gender_restriction, rm.is_available
		FROM room_allocations a
		JOIN rooms rm ON rm.id = a.room_id
		WHERE a.student_id = $1 AND a.is_active = TRUE
	`

	var allocation models.RoomAllocation
	var room models.Room
	err := r.db.QueryRow(ctx, query, studentID).Scan(
		&allocation.ID,
		&allocation.StudentID,
		&allocation.RoomID,
		&allocation.AllocatedDate,
		&allocation.IsActive,
		&allocation.FeePaid,
		&room.ID,
		&room.RoomNumber,
		&room.RoomType,
		&room.Capacity,
		&room.CurrentOccupancy,
		&room.GenderRestriction,
		&room.IsAvailable,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, normalizeError(fmt.Errorf("error retrieving allocation: %w", err))
	}

	allocation.Room = &room
	return &allocation, nil
}

// GetRoomByID retrieves a room by ID
func (r *RoomRepository) GetRoomByID(ctx context.Context, id int64) (*models.Room, error) {
	query := `
		SELECT id, room_number, room_type, capacity, current_occupancy, gender_restriction, is_available
		FROM rooms
		WHERE id = $1
	`

	var room models.Room
	err := r.db.QueryRow(ctx, query, id).Scan(
		&room.ID,
		&room.RoomNumber,
		&room.RoomType,
		&room.Capacity,
		&room.CurrentOccupancy,
		&room.GenderRestriction,
		&room.IsAvailable,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewResourceNotFoundError("room not found")
		}
		return nil, normalizeError(fmt.Errorf("error retrieving room: %w", err))
	}

	return &room, nil
}
