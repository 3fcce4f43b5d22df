package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kmende/npi-registration/internal/app/models"
	"github.com/kmende/npi-registration/internal/app/models/dto"
	"github.com/kmende/npi-registration/internal/pkg/apperrors"
	"github.com/kmende/npi-registration/internal/pkg/helpers"
)

// PaymentRepository handles database operations for payment records
type PaymentRepository struct {
	db *pgxpool.Pool
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{
		db: db,
	}
}

// Create inserts a payment record unless one already exists for the same
// (student, fee item) pair. Re-running a registration must not double-bill,
// so the insert defers to the unique constraint and falls back to the
// existing row. Returns true when a new row was written.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) (bool, error) {
	query := `
		INSERT INTO payments (
			student_id, fee_item_id, amount_paid, method, receipt_number,
			payment_proof_url, payment_date, status, manual_entry
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (student_id, fee_item_id) DO NOTHING
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query,
		payment.StudentID,
		payment.FeeItemID,
		payment.AmountPaid,
		payment.Method,
		payment.ReceiptNumber,
		helpers.GetNullString(payment.PaymentProofURL),
		payment.PaymentDate,
		payment.Status,
		payment.ManualEntry,
	).Scan(&payment.ID)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Already recorded by an earlier attempt; load the existing row
			existing, getErr := r.GetByStudentAndFeeItem(ctx, payment.StudentID, payment.FeeItemID)
			if getErr != nil {
				return false, getErr
			}
			*payment = *existing
			return false, nil
		}
		return false, normalizeError(fmt.Errorf("error creating payment: %w", err))
	}

	return true, nil
}

// GetByID retrieves a payment by ID
func (r *PaymentRepository) GetByID(ctx context.Context, id int64) (*models.Payment, error) {
	query := `
		SELECT id, student_id, fee_item_id, amount_paid, method, receipt_number,
			payment_proof_url, payment_date, status, manual_entry, verified_by, verified_at
		FROM payments
		WHERE id = $1
	`

	payment, err := scanPayment(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrPaymentNotFound
		}
		return nil, normalizeError(fmt.Errorf("error retrieving payment: %w", err))
	}

	return payment, nil
}

// GetByStudentAndFeeItem retrieves the payment for one fee line of a student
func (r *PaymentRepository) GetByStudentAndFeeItem(ctx context.Context, studentID, feeItemID int64) (*models.Payment, error) {
	query := `
		SELECT id, student_id, fee_item_id, amount_paid, method, receipt_number,
			payment_proof_url, payment_date, status, manual_entry, verified_by, verified_at
		FROM payments
		WHERE student_id = $1 AND fee_item_id = $2
	`

	payment, err := scanPayment(r.db.QueryRow(ctx, query, studentID, feeItemID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrPaymentNotFound
		}
		return nil, normalizeError(fmt.Errorf("error retrieving payment: %w", err))
	}

	return payment, nil
}

// GetByStudent retrieves all payments of a student with fee items attached
func (r *PaymentRepository) GetByStudent(ctx context.Context, studentID int64) ([]*models.Payment, error) {
	query := `
		SELECT p.id, p.student_id, p.fee_item_id, p.amount_paid, p.method, p.receipt_number,
			p.payment_proof_url, p.payment_date, p.status, p.manual_entry, p.verified_by, p.verified_at,
			f.id, f.program_id, f.fee_type, f.amount, f.is_mandatory, f.academic_year
		FROM payments p
		JOIN fee_items f ON f.id = p.fee_item_id
		WHERE p.student_id = $1
		ORDER BY f.is_mandatory DESC, f.fee_type
	`

	rows, err := r.db.Query(ctx, query, studentID)
	if err != nil {
		return nil, normalizeError(err)
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		var payment models.Payment
		var item models.FeeItem
		if err := rows.Scan(
			&payment.ID,
			&payment.StudentID,
			&payment.FeeItemID,
			&payment.AmountPaid,
			&payment.Method,
			&payment.ReceiptNumber,
			&payment.PaymentProofURL,
			&payment.PaymentDate,
			&payment.Status,
			&payment.ManualEntry,
			&payment.VerifiedBy,
			&payment.VerifiedAt,
			&item.ID,
			&item.ProgramID,
			&item.FeeType,
			&item.Amount,
			&item.IsMandatory,
			&item.AcademicYear,
		); err != nil {
			return nil, err
		}
		payment.FeeItem = &item
		payments = append(payments, &payment)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return payments, nil
}

// ListPending returns the bursar review queue: every pending payment joined
// with the owning student and program.
func (r *PaymentRepository) ListPending(ctx context.Context) ([]*dto.PendingPaymentItem, error) {
	query := `
		SELECT p.id, p.student_id, p.fee_item_id, p.amount_paid, p.method, p.receipt_number,
			p.payment_proof_url, p.payment_date, p.status, p.manual_entry, p.verified_by, p.verified_at,
			s.student_number, s.first_name, s.last_name, pr.code
		FROM payments p
		JOIN students s ON s.id = p.student_id
		JOIN programs pr ON pr.id = s.program_id
		WHERE p.status = 'pending'
		ORDER BY p.payment_date, p.id
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, normalizeError(err)
	}
	defer rows.Close()

	var items []*dto.PendingPaymentItem
	for rows.Next() {
		var payment models.Payment
		var firstName, lastName string
		var item dto.PendingPaymentItem
		if err := rows.Scan(
			&payment.ID,
			&payment.StudentID,
			&payment.FeeItemID,
			&payment.AmountPaid,
			&payment.Method,
			&payment.ReceiptNumber,
			&payment.PaymentProofURL,
			&payment.PaymentDate,
			&payment.Status,
			&payment.ManualEntry,
			&payment.VerifiedBy,
			&payment.VerifiedAt,
			&item.StudentNumber,
			&firstName,
			&lastName,
			&item.ProgramCode,
		); err != nil {
			return nil, err
		}
		item.Payment = &payment
		item.StudentName = firstName + " " + lastName
		items = append(items, &item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

// Verify applies the one allowed verification transition. The predicate on
// status makes the update a no-op for finalized payments, which callers see
// as ErrPaymentFinalized.
func (r *PaymentRepository) Verify(ctx context.Context, id, verifierID int64, decision models.VerificationStatus) (*models.Payment, error) {
	query := `
		UPDATE payments
		SET status = $1, verified_by = $2, verified_at = $3
		WHERE id = $4 AND status = 'pending'
		RETURNING id, student_id, fee_item_id, amount_paid, method, receipt_number,
			payment_proof_url, payment_date, status, manual_entry, verified_by, verified_at
	`

	payment, err := scanPayment(r.db.QueryRow(ctx, query, decision, verifierID, time.Now(), id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Distinguish missing payment from an already finalized one
			if _, getErr := r.GetByID(ctx, id); getErr != nil {
				return nil, getErr
			}
			return nil, apperrors.ErrPaymentFinalized
		}
		return nil, normalizeError(fmt.Errorf("error verifying payment: %w", err))
	}

	return payment, nil
}

func scanPayment(row pgx.Row) (*models.Payment, error) {
	var payment models.Payment
	err := row.Scan(
		&payment.ID,
		&payment.StudentID,
		&payment.FeeItemID,
		&payment.AmountPaid,
		&payment.Method,
		&payment.ReceiptNumber,
		&payment.PaymentProofURL,
		&payment.PaymentDate,
		&payment.Status,
		&payment.ManualEntry,
		&payment.VerifiedBy,
		&payment.VerifiedAt,
	)
	if err != nil {
		return nil, err
	}
	return &payment, nil
}
