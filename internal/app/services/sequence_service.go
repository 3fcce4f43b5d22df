package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/kmende/npi-registration/internal/pkg/apperrors"
)

// studentNumberPrefix is common to every issued identifier
const studentNumberPrefix = "NPI"

// SequenceService produces unique, monotonically increasing student numbers
// scoped to (program, enrollment year). Reservation is delegated to an
// atomic per-scope counter, so concurrent submissions to the same scope can
// never observe the same value. A reserved number is consumed even if the
// owning registration later fails.
type SequenceService struct {
	programStore  ProgramStore
	sequenceStore SequenceStore
}

// NewSequenceService creates a new sequence service
func NewSequenceService(programStore ProgramStore, sequenceStore SequenceStore) *SequenceService {
	return &SequenceService{
		programStore:  programStore,
		sequenceStore: sequenceStore,
	}
}

// NextStudentNumber reserves and formats the next identifier for the scope,
// e.g. NPI2024DCE001. Returns ErrScopeNotFound when the program cannot be
// resolved or is no longer active.
func (s *SequenceService) NextStudentNumber(ctx context.Context, programID int64, enrollmentYear int) (string, error) {
	program, err := s.programStore.GetByID(ctx, programID)
	if err != nil {
		if errors.Is(err, apperrors.ErrProgramNotFound) {
			return "", apperrors.ErrScopeNotFound
		}
		return "", fmt.Errorf("error resolving program scope: %w", err)
	}

	if !program.IsActive {
		return "", apperrors.ErrScopeNotFound
	}

	prefix := fmt.Sprintf("%s%d%s", studentNumberPrefix, enrollmentYear, program.Code)

	seq, err := s.sequenceStore.ReserveNext(ctx, programID, enrollmentYear, prefix)
	if err != nil {
		return "", fmt.Errorf("error reserving student number: %w", err)
	}

	return fmt.Sprintf("%s%03d", prefix, seq), nil
}
