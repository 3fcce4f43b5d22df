package services

import (
	"context"
	"fmt"

	"github.com/kmende/npi-registration/internal/app/models"
)

// StudentService provides read access to registered students with their
// related records hydrated.
type StudentService struct {
	studentStore StudentStore
	programStore ProgramStore
	paymentStore PaymentStore
	roomStore    RoomStore
	cardStore    CardStore
	auditStore   AuditStore
}

// NewStudentService creates a new student service
func NewStudentService(
	studentStore StudentStore,
	programStore ProgramStore,
	paymentStore PaymentStore,
	roomStore RoomStore,
	cardStore CardStore,
	auditStore AuditStore,
) *StudentService {
	return &StudentService{
		studentStore: studentStore,
		programStore: programStore,
		paymentStore: paymentStore,
		roomStore:    roomStore,
		cardStore:    cardStore,
		auditStore:   auditStore,
	}
}

// GetStudentWithDetails loads a student together with program, payments,
// active allocation and issued cards.
func (s *StudentService) GetStudentWithDetails(ctx context.Context, studentID int64) (*models.Student, error) {
	student, err := s.studentStore.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}

	program, err := s.programStore.GetByID(ctx, student.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("error loading program for student %d: %w", studentID, err)
	}
	student.Program = program

	payments, err := s.paymentStore.GetByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("error loading payments for student %d: %w", studentID, err)
	}
	student.Payments = payments

	allocation, err := s.roomStore.GetActiveAllocationByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("error loading allocation for student %d: %w", studentID, err)
	}
	student.Allocation = allocation

	idCard, err := s.cardStore.GetActiveIDCardByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("error loading ID card for student %d: %w", studentID, err)
	}
	student.IDCard = idCard

	mealCard, err := s.cardStore.GetActiveMealCardByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("error loading meal card for student %d: %w", studentID, err)
	}
	student.MealCard = mealCard

	return student, nil
}

// GetByStudentNumber resolves a student by the issued identifier
func (s *StudentService) GetByStudentNumber(ctx context.Context, studentNumber string) (*models.Student, error) {
	return s.studentStore.GetByStudentNumber(ctx, studentNumber)
}

// GetAuditTrail returns the audit entries recorded for a student
func (s *StudentService) GetAuditTrail(ctx context.Context, studentID int64) ([]*models.AuditEntry, error) {
	if _, err := s.studentStore.GetByID(ctx, studentID); err != nil {
		return nil, err
	}
	return s.auditStore.ListByStudent(ctx, studentID)
}
