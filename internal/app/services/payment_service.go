package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/kmende/npi-registration/internal/app/models"
	"github.com/kmende/npi-registration/internal/app/models/dto"
	"github.com/kmende/npi-registration/internal/pkg/apperrors"
)

// PaymentService records registration payments and applies verification
// decisions. Recording is at-least-once safe: the store deduplicates on
// (student, fee item), so re-running a bill never produces duplicate rows.
type PaymentService struct {
	paymentStore PaymentStore
	auditStore   AuditStore
	logger       zerolog.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(paymentStore PaymentStore, auditStore AuditStore, logger zerolog.Logger) *PaymentService {
	return &PaymentService{
		paymentStore: paymentStore,
		auditStore:   auditStore,
		logger:       logger,
	}
}

// RecordBill creates one pending payment per line item of the bill. Every
// record starts pending regardless of method: cash awaits in-person
// reconciliation, online awaits receipt review. Returns how many rows were
// newly written; the rest already existed from an earlier attempt.
func (s *PaymentService) RecordBill(ctx context.Context, studentID int64, bill *models.Bill, method models.PaymentMethod, receiptNumber string, proofURL *string) (int, error) {
	created := 0
	for _, item := range bill.LineItems {
		payment := &models.Payment{
			StudentID:     studentID,
			FeeItemID:     item.ID,
			AmountPaid:    item.Amount,
			Method:        method,
			ReceiptNumber: receiptNumber,
			PaymentProofURL: proofURL,
			PaymentDate:   time.Now(),
			Status:        models.VerificationPending,
			ManualEntry:   method == models.PaymentMethodCash,
		}

		inserted, err := s.paymentStore.Create(ctx, payment)
		if err != nil {
			return created, fmt.Errorf("error recording payment for fee item %d: %w", item.ID, err)
		}
		if inserted {
			created++
		}
	}

	return created, nil
}

// Verify applies a verification decision to one payment, exactly once.
func (s *PaymentService) Verify(ctx context.Context, paymentID, verifierID int64, decision models.VerificationStatus) (*models.Payment, error) {
	if decision != models.VerificationVerified && decision != models.VerificationRejected {
		return nil, apperrors.NewBadRequestError("decision must be verified or rejected")
	}

	payment, err := s.paymentStore.Verify(ctx, paymentID, verifierID, decision)
	if err != nil {
		return nil, err
	}

	entry := &models.AuditEntry{
		StudentID: &payment.StudentID,
		Action:    "payment_" + string(decision),
		ActorID:   verifierID,
		Details: map[string]interface{}{
			"payment_id":     payment.ID,
			"fee_item_id":    payment.FeeItemID,
			"amount":         payment.AmountPaid,
			"receipt_number": payment.ReceiptNumber,
		},
	}
	if err := s.auditStore.Append(ctx, entry); err != nil {
		// The decision is already committed; losing the audit row is logged,
		// not surfaced to the verifier.
		s.logger.Error().Err(err).Int64("paymentId", payment.ID).Msg("Failed to append payment verification audit entry")
	}

	return payment, nil
}

// ListPending returns the review queue for bursars
func (s *PaymentService) ListPending(ctx context.Context) ([]*dto.PendingPaymentItem, error) {
	return s.paymentStore.ListPending(ctx)
}
