package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kmende/npi-registration/internal/app/models"
	"github.com/kmende/npi-registration/internal/pkg/apperrors"
)

// ProgramRepository handles database operations for programs and their fee
// schedules. Both are read-only reference data for registration.
type ProgramRepository struct {
	db *pgxpool.Pool
}

// NewProgramRepository creates a new program repository
func NewProgramRepository(db *pgxpool.Pool) *ProgramRepository {
	return &ProgramRepository{
		db: db,
	}
}

// GetByID retrieves a program by ID
func (r *ProgramRepository) GetByID(ctx context.Context, id int64) (*models.Program, error) {
	query := `
		SELECT id, name, code, duration_years, is_active
		FROM programs
		WHERE id = $1
	`

	var program models.Program
	err := r.db.QueryRow(ctx, query, id).Scan(
		&program.ID,
		&program.Name,
		&program.Code,
		&program.DurationYears,
		&program.IsActive,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrProgramNotFound
		}
		return nil, normalizeError(fmt.Errorf("error retrieving program: %w", err))
	}

	return &program, nil
}

// GetByCode retrieves a program by its code
func (r *ProgramRepository) GetByCode(ctx context.Context, code string) (*models.Program, error) {
	query := `
		SELECT id, name, code, duration_years, is_active
		FROM programs
		WHERE code = $1
	`

	var program models.Program
	err := r.db.QueryRow(ctx, query, code).Scan(
		&program.ID,
		&program.Name,
		&program.Code,
		&program.DurationYears,
		&program.IsActive,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrProgramNotFound
		}
		return nil, normalizeError(fmt.Errorf("error retrieving program by code: %w", err))
	}

	return &program, nil
}

// GetAll retrieves all active programs
func (r *ProgramRepository) GetAll(ctx context.Context) ([]*models.Program, error) {
	query := `
		SELECT id, name, code, duration_years, is_active
		FROM programs
		WHERE is_active = TRUE
		ORDER BY code
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, normalizeError(err)
	}
	defer rows.Close()

	var programs []*models.Program
	for rows.Next() {
		var program models.Program
		if err := rows.Scan(
			&program.ID,
			&program.Name,
			&program.Code,
			&program.DurationYears,
			&program.IsActive,
		); err != nil {
			return nil, err
		}
		programs = append(programs, &program)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return programs, nil
}

// GetFeeSchedule retrieves the fee schedule for a program, mandatory items
// first. An empty result is the caller's signal for FeeScheduleNotFound.
func (r *ProgramRepository) GetFeeSchedule(ctx context.Context, programID int64) ([]*models.FeeItem, error) {
	query := `
		SELECT id, program_id, fee_type, amount, is_mandatory, academic_year
		FROM fee_items
		WHERE program_id = $1
		ORDER BY is_mandatory DESC, fee_type
	`

	rows, err := r.db.Query(ctx, query, programID)
	if err != nil {
		return nil, normalizeError(err)
	}
	defer rows.Close()

	var items []*models.FeeItem
	for rows.Next() {
		var item models.FeeItem
		if err := rows.Scan(
			&item.ID,
			&item.ProgramID,
			&item.FeeType,
			&item.Amount,
			&item.IsMandatory,
			&item.AcademicYear,
		); err != nil {
			return nil, err
		}
		items = append(items, &item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}
