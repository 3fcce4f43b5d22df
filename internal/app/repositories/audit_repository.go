package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kmende/npi-registration/internal/app/models"
	"github.com/kmende/npi-registration/internal/pkg/helpers"
)

// AuditRepository is the append-only sink for the registration audit trail
type AuditRepository struct {
	db *pgxpool.Pool
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{
		db: db,
	}
}

// Append writes one audit entry. Entries are never updated or deleted.
func (r *AuditRepository) Append(ctx context.Context, entry *models.AuditEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("error encoding audit details: %w", err)
	}

	query := `
		INSERT INTO audit_log (student_id, action, actor_id, details, timestamp)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err = r.db.QueryRow(ctx, query,
		helpers.GetNullInt64(entry.StudentID),
		entry.Action,
		entry.ActorID,
		details,
		entry.Timestamp,
	).Scan(&entry.ID)

	if err != nil {
		return normalizeError(fmt.Errorf("error appending audit entry: %w", err))
	}

	return nil
}

// ListByStudent returns the audit trail for one student, oldest first
func (r *AuditRepository) ListByStudent(ctx context.Context, studentID int64) ([]*models.AuditEntry, error) {
	query := `
		SELECT id, student_id, action, actor_id, details, timestamp
		FROM audit_log
		WHERE student_id = $1
		ORDER BY timestamp, id
	`

	rows, err := r.db.Query(ctx, query, studentID)
	if err != nil {
		return nil, normalizeError(err)
	}
	defer rows.Close()

	var entries []*models.AuditEntry
	for rows.Next() {
		var entry models.AuditEntry
		var details []byte
		if err := rows.Scan(
			&entry.ID,
			&entry.StudentID,
			&entry.Action,
			&entry.ActorID,
			&details,
			&entry.Timestamp,
		); err != nil {
			return nil, err
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &entry.Details); err != nil {
				return nil, fmt.Errorf("error decoding audit details: %w", err)
			}
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
