package services

import (
	"context"

	"github.com/kmende/npi-registration/internal/app/models"
	"github.com/kmende/npi-registration/internal/app/models/dto"
)

// ProgramService serves the program catalog and fee previews shown to
// registrars before a submission.
type ProgramService struct {
	programStore ProgramStore
	feeService   *FeeService
}

// NewProgramService creates a new program service
func NewProgramService(programStore ProgramStore, feeService *FeeService) *ProgramService {
	return &ProgramService{
		programStore: programStore,
		feeService:   feeService,
	}
}

// ListPrograms returns all active programs
func (s *ProgramService) ListPrograms(ctx context.Context) ([]*models.Program, error) {
	return s.programStore.GetAll(ctx)
}

// GetFeeSchedule returns the full fee schedule of a program, mandatory
// items first.
func (s *ProgramService) GetFeeSchedule(ctx context.Context, programID int64) ([]*models.FeeItem, error) {
	if _, err := s.programStore.GetByID(ctx, programID); err != nil {
		return nil, err
	}
	return s.programStore.GetFeeSchedule(ctx, programID)
}

// PreviewBill computes the bill a selection would produce, without any side
// effects.
func (s *ProgramService) PreviewBill(ctx context.Context, programID int64, selectedFeeIDs []int64) (*dto.BillPreviewResponse, error) {
	if _, err := s.programStore.GetByID(ctx, programID); err != nil {
		return nil, err
	}

	bill, err := s.feeService.ComputeBill(ctx, programID, selectedFeeIDs)
	if err != nil {
		return nil, err
	}

	return &dto.BillPreviewResponse{
		ProgramID: programID,
		LineItems: bill.LineItems,
		Total:     bill.Total,
	}, nil
}
