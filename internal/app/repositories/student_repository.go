package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kmende/npi-registration/internal/app/models"
	"github.com/kmende/npi-registration/internal/pkg/apperrors"
	"github.com/kmende/npi-registration/internal/pkg/dberrors"
	"github.com/kmende/npi-registration/internal/pkg/helpers"
)

// StudentRepository handles database operations for student records
type StudentRepository struct {
	db *pgxpool.Pool
}

// NewStudentRepository creates a new student repository
func NewStudentRepository(db *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{
		db: db,
	}
}

// Create persists a new student record. A duplicate student number means two
// registrations raced past the sequence allocator, which the counter design
// rules out; it is reported as an invariant violation, not a user error.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	query := `
		INSERT INTO students (
			student_number, program_id, student_type, student_category,
			year_level, enrollment_year, first_name, last_name, gender,
			date_of_birth, email, phone, guardian_name, guardian_phone,
			address, national_id, requires_accommodation, biometric_enrolled,
			registration_date, is_active
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query,
		student.StudentNumber,
		student.ProgramID,
		student.StudentType,
		student.StudentCategory,
		student.YearLevel,
		student.EnrollmentYear,
		student.FirstName,
		student.LastName,
		student.Gender,
		student.DateOfBirth,
		student.Email,
		student.Phone,
		student.GuardianName,
		student.GuardianPhone,
		student.Address,
		helpers.GetNullString(student.NationalID),
		student.RequiresAccommodation,
		student.BiometricEnrolled,
		student.RegistrationDate,
		student.IsActive,
	).Scan(&student.ID)

	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "students_student_number_key") {
			return apperrors.NewInvariantViolationError(
				fmt.Sprintf("student number %s already issued", student.StudentNumber))
		}
		return normalizeError(fmt.Errorf("error creating student: %w", err))
	}

	return nil
}

// GetByID retrieves a student by ID
func (r *StudentRepository) GetByID(ctx context.Context, id int64) (*models.Student, error) {
	query := `
		SELECT id, student_number, program_id, student_type, student_category,
			year_level, enrollment_year, first_name, last_name, gender,
			date_of_birth, email, phone, guardian_name, guardian_phone,
			address, national_id, requires_accommodation, biometric_enrolled,
			registration_date, is_active
		FROM students
		WHERE id = $1
	`

	student, err := r.scanStudent(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrStudentNotFound
		}
		return nil, normalizeError(fmt.Errorf("error retrieving student: %w", err))
	}

	return student, nil
}

// GetByStudentNumber retrieves a student by the issued identifier
func (r *StudentRepository) GetByStudentNumber(ctx context.Context, studentNumber string) (*models.Student, error) {
	query := `
		SELECT id, student_number, program_id, student_type, student_category,
			year_level, enrollment_year, first_name, last_name, gender,
			date_of_birth, email, phone, guardian_name, guardian_phone,
			address, national_id, requires_accommodation, biometric_enrolled,
			registration_date, is_active
		FROM students
		WHERE student_number = $1
	`

	student, err := r.scanStudent(r.db.QueryRow(ctx, query, studentNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrStudentNotFound
		}
		return nil, normalizeError(fmt.Errorf("error retrieving student by number: %w", err))
	}

	return student, nil
}

// Deactivate flags a student inactive. Student records are never deleted.
func (r *StudentRepository) Deactivate(ctx context.Context, id int64) error {
	query := `UPDATE students SET is_active = FALSE WHERE id = $1`

	cmdTag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return normalizeError(fmt.Errorf("error deactivating student: %w", err))
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrStudentNotFound
	}

	return nil
}

func (r *StudentRepository) scanStudent(row pgx.Row) (*models.Student, error) {
	var student models.Student
	err := row.Scan(
		&student.ID,
		&student.StudentNumber,
		&student.ProgramID,
		&student.StudentType,
		&student.StudentCategory,
		&student.YearLevel,
		&student.EnrollmentYear,
		&student.FirstName,
		&student.LastName,
		&student.Gender,
		&student.DateOfBirth,
		&student.Email,
		&student.Phone,
		&student.GuardianName,
		&student.GuardianPhone,
		&student.Address,
		&student.NationalID,
		&student.RequiresAccommodation,
		&student.BiometricEnrolled,
		&student.RegistrationDate,
		&student.IsActive,
	)
	if err != nil {
		return nil, err
	}
	return &student, nil
}
