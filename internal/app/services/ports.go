package services

import (
	"context"

	"github.com/kmende/npi-registration/internal/app/models"
	"github.com/kmende/npi-registration/internal/app/models/dto"
)

// Persistence ports consumed by the services. The pgx repositories satisfy
// them in production; tests substitute in-memory stores. Keeping them here,
// next to their consumers, avoids a hidden global database handle anywhere
// in the workflow.

// ProgramStore provides read access to programs and fee schedules
type ProgramStore interface {
	GetByID(ctx context.Context, id int64) (*models.Program, error)
	GetAll(ctx context.Context) ([]*models.Program, error)
	GetFeeSchedule(ctx context.Context, programID int64) ([]*models.FeeItem, error)
}

// StudentStore provides access to student records
type StudentStore interface {
	Create(ctx context.Context, student *models.Student) error
	GetByID(ctx context.Context, id int64) (*models.Student, error)
	GetByStudentNumber(ctx context.Context, studentNumber string) (*models.Student, error)
	Deactivate(ctx context.Context, id int64) error
}

// SequenceStore reserves student number sequence values per scope
type SequenceStore interface {
	ReserveNext(ctx context.Context, programID int64, enrollmentYear int, prefix string) (int, error)
}

// PaymentStore provides access to payment records
type PaymentStore interface {
	Create(ctx context.Context, payment *models.Payment) (bool, error)
	GetByID(ctx context.Context, id int64) (*models.Payment, error)
	GetByStudent(ctx context.Context, studentID int64) ([]*models.Payment, error)
	ListPending(ctx context.Context) ([]*dto.PendingPaymentItem, error)
	Verify(ctx context.Context, id, verifierID int64, decision models.VerificationStatus) (*models.Payment, error)
}

// RoomStore provides access to dormitory inventory
type RoomStore interface {
	FindCandidates(ctx context.Context, roomType models.RoomType, gender models.Gender) ([]*models.Room, error)
	TryAllocate(ctx context.Context, roomID, studentID int64) (*models.RoomAllocation, error)
	GetActiveAllocationByStudent(ctx context.Context, studentID int64) (*models.RoomAllocation, error)
}

// CardStore provides access to identity artifacts
type CardStore interface {
	CreateIDCard(ctx context.Context, card *models.IDCard) error
	GetActiveIDCardByStudent(ctx context.Context, studentID int64) (*models.IDCard, error)
	CreateMealCard(ctx context.Context, card *models.MealCard) error
	GetActiveMealCardByStudent(ctx context.Context, studentID int64) (*models.MealCard, error)
}

// AttemptStore persists the registration workflow state machine. Stage
// transitions are compare-and-set on the expected current stage; a lost
// race surfaces as ErrPersistenceConflict.
type AttemptStore interface {
	Create(ctx context.Context, attempt *models.RegistrationAttempt) error
	GetByToken(ctx context.Context, token string) (*models.RegistrationAttempt, error)
	AdvanceStage(ctx context.Context, attempt *models.RegistrationAttempt, expected models.Stage) error
	MarkFailed(ctx context.Context, attemptID int64, expected, lastCompleted models.Stage, resumable bool, reason string) error
}

// AuditStore is the append-only audit log sink
type AuditStore interface {
	Append(ctx context.Context, entry *models.AuditEntry) error
	ListByStudent(ctx context.Context, studentID int64) ([]*models.AuditEntry, error)
}

// UserStore provides access to staff accounts
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
}
