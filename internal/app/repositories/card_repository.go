package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kmende/npi-registration/internal/app/models"
)

// CardRepository handles database operations for identity artifacts
type CardRepository struct {
	db *pgxpool.Pool
}

// NewCardRepository creates a new card repository
func NewCardRepository(db *pgxpool.Pool) *CardRepository {
	return &CardRepository{
		db: db,
	}
}

// CreateIDCard persists a new student ID card
func (r *CardRepository) CreateIDCard(ctx context.Context, card *models.IDCard) error {
	query := `
		INSERT INTO id_cards (student_id, card_number, issue_date, expiry_date, is_active, qr_code_data, barcode_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query,
		card.StudentID,
		card.CardNumber,
		card.IssueDate,
		card.ExpiryDate,
		card.IsActive,
		card.QRCodeData,
		card.BarcodeData,
	).Scan(&card.ID)

	if err != nil {
		return normalizeError(fmt.Errorf("error creating ID card: %w", err))
	}

	return nil
}

// GetActiveIDCardByStudent returns the student's active ID card, or nil
func (r *CardRepository) GetActiveIDCardByStudent(ctx context.Context, studentID int64) (*models.IDCard, error) {
	query := `
		SELECT id, student_id, card_number, issue_date, expiry_date, is_active, qr_code_data, barcode_data
		FROM id_cards
		WHERE student_id = $1 AND is_active = TRUE
	`

	var card models.IDCard
	err := r.db.QueryRow(ctx, query, studentID).Scan(
		&card.ID,
		&card.StudentID,
		&card.CardNumber,
		&card.IssueDate,
		&card.ExpiryDate,
		&card.IsActive,
		&card.QRCodeData,
		&card.BarcodeData,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, normalizeError(fmt.Errorf("error retrieving ID card: %w", err))
	}

	return &card, nil
}

// CreateMealCard persists a new meal card
func (r *CardRepository) CreateMealCard(ctx context.Context, card *models.MealCard) error {
	query := `
		INSERT INTO meal_cards (student_id, card_number, balance, is_active, issued_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query,
		card.StudentID,
		card.CardNumber,
		card.Balance,
		card.IsActive,
		card.IssuedDate,
	).Scan(&card.ID)

	if err != nil {
		return normalizeError(fmt.Errorf("error creating meal card: %w", err))
	}

	return nil
}

// GetActiveMealCardByStudent returns the student's active meal card, or nil
func (r *CardRepository) GetActiveMealCardByStudent(ctx context.Context, studentID int64) (*models.MealCard, error) {
	query := `
		SELECT id, student_id, card_number, balance, is_active, issued_date
		FROM meal_cards
		WHERE student_id = $1 AND is_active = TRUE
	`

	var card models.MealCard
	err := r.db.QueryRow(ctx, query, studentID).Scan(
		&card.ID,
		&card.StudentID,
		&card.CardNumber,
		&card.Balance,
		&card.IsActive,
		&card.IssuedDate,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, normalizeError(fmt.Errorf("error retrieving meal card: %w", err))
	}

	return &card, nil
}
