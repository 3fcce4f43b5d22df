package models

import "time"

// VerificationStatus is the lifecycle state of a payment record
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationRejected VerificationStatus = "rejected"
)

// Payment links a student to a fee line item, based on the 'payments' table.
// Created at registration time in pending status regardless of method; cash
// payments await in-person reconciliation, online payments await receipt
// review. Mutated exactly once by a verification action.
type Payment struct {
	ID              int64              `json:"id" db:"id" example:"1"`
	StudentID       int64              `json:"studentId" db:"student_id" example:"1"`
	FeeItemID       int64              `json:"feeItemId" db:"fee_item_id" example:"3"`
	AmountPaid      float64            `json:"amountPaid" db:"amount_paid" example:"2500"`
	Method          PaymentMethod      `json:"method" db:"method" example:"online"`
	ReceiptNumber   string             `json:"receiptNumber" db:"receipt_number" example:"RCP-0042"`
	PaymentProofURL *string            `json:"paymentProofUrl,omitempty" db:"payment_proof_url"`
	PaymentDate     time.Time          `json:"paymentDate" db:"payment_date"`
	Status          VerificationStatus `json:"status" db:"status" example:"pending"`
	ManualEntry     bool               `json:"manualEntry" db:"manual_entry"` // Cash payments are keyed in by hand
	VerifiedBy      *int64             `json:"verifiedBy,omitempty" db:"verified_by"`
	VerifiedAt      *time.Time         `json:"verifiedAt,omitempty" db:"verified_at"`

	// Relations (populated when needed)
	FeeItem *FeeItem `json:"feeItem,omitempty"`
}
