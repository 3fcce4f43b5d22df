package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kmende/npi-registration/internal/app/models"
	"github.com/kmende/npi-registration/internal/pkg/apperrors"
	"github.com/kmende/npi-registration/internal/pkg/dberrors"
)

// AttemptRepository persists the registration workflow state machine.
// One row per request token records how far an attempt got, allowing a
// resubmission to resume instead of redoing committed stages.
type AttemptRepository struct {
	db *pgxpool.Pool
}

// NewAttemptRepository creates a new attempt repository
func NewAttemptRepository(db *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{
		db: db,
	}
}

// Create inserts a fresh attempt at the submitted stage. A concurrent create
// for the same token loses to the unique constraint; the caller then loads
// the winner and resumes from its recorded stage.
func (r *AttemptRepository) Create(ctx context.Context, attempt *models.RegistrationAttempt) error {
	query := `
		INSERT INTO registration_attempts (request_token, program_id, stage, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		RETURNING id, created_at, updated_at
	`

	now := time.Now()
	err := r.db.QueryRow(ctx, query,
		attempt.RequestToken,
		attempt.ProgramID,
		attempt.Stage,
		now,
	).Scan(&attempt.ID, &attempt.CreatedAt, &attempt.UpdatedAt)

	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "registration_attempts_request_token_key") {
			return apperrors.ErrDuplicateSubmission
		}
		return normalizeError(fmt.Errorf("error creating registration attempt: %w", err))
	}

	return nil
}

// GetByToken retrieves an attempt by its request token
func (r *AttemptRepository) GetByToken(ctx context.Context, token string) (*models.RegistrationAttempt, error) {
	query := `
		SELECT id, request_token, program_id, stage, student_number, student_id,
			accommodation_state, last_error, failed_stage, resumable, created_at, updated_at
		FROM registration_attempts
		WHERE request_token = $1
	`

	var attempt models.RegistrationAttempt
	err := r.db.QueryRow(ctx, query, token).Scan(
		&attempt.ID,
		&attempt.RequestToken,
		&attempt.ProgramID,
		&attempt.Stage,
		&attempt.StudentNumber,
		&attempt.StudentID,
		&attempt.AccommodationState,
		&attempt.LastError,
		&attempt.FailedStage,
		&attempt.Resumable,
		&attempt.CreatedAt,
		&attempt.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrAttemptNotFound
		}
		return nil, normalizeError(fmt.Errorf("error retrieving registration attempt: %w", err))
	}

	return &attempt, nil
}

// AdvanceStage records a completed stage transition together with whatever
// identifiers the stage produced, and clears any previous failure marker.
// The update is a compare-and-set on the expected current stage: when two
// submissions race on the same token, only one transition lands and the
// loser gets ErrPersistenceConflict instead of silently double-running the
// workflow.
func (r *AttemptRepository) AdvanceStage(ctx context.Context, attempt *models.RegistrationAttempt, expected models.Stage) error {
	query := `
		UPDATE registration_attempts
		SET stage = $1, student_number = $2, student_id = $3,
			accommodation_state = $4, last_error = NULL, failed_stage = NULL,
			resumable = TRUE, updated_at = $5
		WHERE id = $6 AND stage = $7
	`

	cmdTag, err := r.db.Exec(ctx, query,
		attempt.Stage,
		attempt.StudentNumber,
		attempt.StudentID,
		attempt.AccommodationState,
		time.Now(),
		attempt.ID,
		expected,
	)

	if err != nil {
		return normalizeError(fmt.Errorf("error advancing registration attempt: %w", err))
	}

	if cmdTag.RowsAffected() == 0 {
		// Row gone or stage moved underneath us: another submission with
		// the same token owns the attempt now.
		return apperrors.NewCustomError(apperrors.ErrPersistenceConflict,
			"registration attempt was advanced by a concurrent submission")
	}

	return nil
}

// MarkFailed records a terminal failure with the last completed stage and
// whether a resubmission can make progress. Guarded by the same stage
// compare-and-set as AdvanceStage so a raced-out submission cannot stamp
// 'failed' over the progress of the one that won.
func (r *AttemptRepository) MarkFailed(ctx context.Context, attemptID int64, expected, lastCompleted models.Stage, resumable bool, reason string) error {
	query := `
		UPDATE registration_attempts
		SET stage = $1, failed_stage = $2, last_error = $3, resumable = $4, updated_at = $5
		WHERE id = $6 AND stage = $7
	`

	cmdTag, err := r.db.Exec(ctx, query,
		models.StageFailed,
		lastCompleted,
		reason,
		resumable,
		time.Now(),
		attemptID,
		expected,
	)

	if err != nil {
		return normalizeError(fmt.Errorf("error marking registration attempt failed: %w", err))
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewCustomError(apperrors.ErrPersistenceConflict,
			"registration attempt was advanced by a concurrent submission")
	}

	return nil
}
