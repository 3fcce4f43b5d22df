package repositories

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kmende/npi-registration/internal/pkg/apperrors"
	"github.com/kmende/npi-registration/internal/pkg/dberrors"
)

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository     *UserRepository
	ProgramRepository  *ProgramRepository
	StudentRepository  *StudentRepository
	SequenceRepository *SequenceRepository
	PaymentRepository  *PaymentRepository
	RoomRepository     *RoomRepository
	CardRepository     *CardRepository
	AttemptRepository  *AttemptRepository
	AuditRepository    *AuditRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		UserRepository:     NewUserRepository(db),
		ProgramRepository:  NewProgramRepository(db),
		StudentRepository:  NewStudentRepository(db),
		SequenceRepository: NewSequenceRepository(db),
		PaymentRepository:  NewPaymentRepository(db),
		RoomRepository:     NewRoomRepository(db),
		CardRepository:     NewCardRepository(db),
		AttemptRepository:  NewAttemptRepository(db),
		AuditRepository:    NewAuditRepository(db),
	}
}

// normalizeError maps low-level database failures onto the persistence error
// taxonomy so the orchestrator can decide what is retryable. Anything else
// passes through untouched.
func normalizeError(err error) error {
	if err == nil {
		return nil
	}
	if dberrors.IsTimeout(err) {
		return apperrors.NewCustomError(apperrors.ErrPersistenceTimeout, err.Error())
	}
	if dberrors.IsSerializationFailure(err) {
		return apperrors.NewCustomError(apperrors.ErrPersistenceConflict, err.Error())
	}
	return err
}
