package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SequenceRepository owns the per-(program, year) student number counters.
// One counter row per scope replaces the legacy scan-max-and-increment over
// the students table, which raced under concurrent submissions.
type SequenceRepository struct {
	db *pgxpool.Pool
}

// NewSequenceRepository creates a new sequence repository
func NewSequenceRepository(db *pgxpool.Pool) *SequenceRepository {
	return &SequenceRepository{
		db: db,
	}
}

// ReserveNext atomically reserves the next sequence number for a scope and
// returns it. The first reservation for a scope seeds the counter from the
// highest student number already issued under the prefix, so the series
// continues where historical data left off. The suffix is everything after
// the prefix, not a fixed three digits, since the series keeps growing past
// 999. Concurrent callers serialize on
// the counter row; two submissions can never observe the same value.
// Reserved numbers are never returned to the pool on failure.
func (r *SequenceRepository) ReserveNext(ctx context.Context, programID int64, enrollmentYear int, prefix string) (int, error) {
	query := `
		INSERT INTO student_number_counters (program_id, enrollment_year, last_seq)
		VALUES ($1, $2, (
			SELECT COALESCE(MAX(CAST(SUBSTRING(student_number FROM CHAR_LENGTH($3) + 1) AS INTEGER)), 0) + 1
			FROM students
			WHERE student_number LIKE $3 || '%'
		))
		ON CONFLICT (program_id, enrollment_year)
		DO UPDATE SET last_seq = student_number_counters.last_seq + 1
		RETURNING last_seq
	`

	var seq int
	err := r.db.QueryRow(ctx, query, programID, enrollmentYear, prefix).Scan(&seq)
	if err != nil {
		return 0, normalizeError(err)
	}

	return seq, nil
}
