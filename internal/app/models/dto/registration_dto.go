package dto

import (
	"time"

	"github.com/kmende/npi-registration/internal/app/models"
)

// SubmitRegistrationRequest carries one applicant submission. Immutable once
// submitted; the raw form is never persisted beyond the orchestrator's scope.
// RequestToken is the client-supplied idempotency key: resubmitting the same
// token resumes the recorded attempt instead of starting a new registration.
type SubmitRegistrationRequest struct {
	RequestToken          string                 `json:"requestToken" binding:"required,uuid"`
	FirstName             string                 `json:"firstName" binding:"required"`
	LastName              string                 `json:"lastName" binding:"required"`
	Email                 string                 `json:"email" binding:"required,email"`
	Phone                 string                 `json:"phone" binding:"required"`
	DateOfBirth           time.Time              `json:"dateOfBirth" binding:"required"`
	Gender                models.Gender          `json:"gender" binding:"required,oneof=male female"`
	ProgramID             int64                  `json:"programId" binding:"required,min=1"`
	StudentType           models.StudentType     `json:"studentType" binding:"required,oneof=full_time part_time certification industrial_training"`
	StudentCategory       models.StudentCategory `json:"studentCategory" binding:"required,oneof=day_scholar boarder"`
	GuardianName          string                 `json:"guardianName"`
	GuardianPhone         string                 `json:"guardianPhone"`
	Address               string                 `json:"address"`
	NationalID            *string                `json:"nationalId,omitempty"`
	RequiresAccommodation bool                   `json:"requiresAccommodation"`
	RoomPreference        models.RoomType        `json:"roomPreference,omitempty"`
	SelectedFeeIDs        []int64                `json:"selectedFeeIds"`
	PaymentMethod         models.PaymentMethod   `json:"paymentMethod" binding:"required,oneof=cash online bank_deposit"`
	ReceiptNumber         string                 `json:"receiptNumber" binding:"required"`
	PaymentProofURL       *string                `json:"paymentProofUrl,omitempty"`
}

// RegistrationResponse is returned after a completed submission
type RegistrationResponse struct {
	Student            *models.Student `json:"student"`
	Stage              models.Stage    `json:"stage" example:"completed"`
	AccommodationState *models.Stage   `json:"accommodationState,omitempty" example:"accommodation_deferred"`
}

// AttemptStatusResponse reports the state machine of one registration attempt
type AttemptStatusResponse struct {
	RequestToken       string          `json:"requestToken"`
	Stage              models.Stage    `json:"stage"`
	FailedStage        *models.Stage   `json:"failedStage,omitempty"`
	LastError          *string         `json:"lastError,omitempty"`
	Resumable          bool            `json:"resumable"`
	AccommodationState *models.Stage   `json:"accommodationState,omitempty"`
	Student            *models.Student `json:"student,omitempty"`
}

// PreviewBillRequest selects optional fee items for a bill preview
type PreviewBillRequest struct {
	SelectedFeeIDs []int64 `json:"selectedFeeIds"`
}

// BillPreviewResponse is the fee breakdown shown before submission
type BillPreviewResponse struct {
	ProgramID int64              `json:"programId"`
	LineItems []*models.FeeItem  `json:"lineItems"`
	Total     float64            `json:"total" example:"4150"`
}
