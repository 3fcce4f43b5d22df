package dto

import "github.com/kmende/npi-registration/internal/app/models"

// VerifyPaymentRequest carries a verification decision for one payment.
// The decision is applied exactly once; a finalized payment rejects further
// transitions.
type VerifyPaymentRequest struct {
	Decision models.VerificationStatus `json:"decision" binding:"required,oneof=verified rejected"`
}

// PendingPaymentItem is one row of the bursar review queue
type PendingPaymentItem struct {
	Payment       *models.Payment `json:"payment"`
	StudentNumber string          `json:"studentNumber" example:"NPI2024DCE001"`
	StudentName   string          `json:"studentName" example:"Anna Kila"`
	ProgramCode   string          `json:"programCode" example:"DCE"`
}
