package services

import (
	"context"
	"fmt"

	"github.com/kmende/npi-registration/internal/app/models"
	"github.com/kmende/npi-registration/internal/pkg/apperrors"
)

// FeeService computes the payable bill for a program and a set of optional
// fee selections. Stateless and deterministic: the same program and
// selection set always yields the same total.
type FeeService struct {
	programStore ProgramStore
}

// NewFeeService creates a new fee service
func NewFeeService(programStore ProgramStore) *FeeService {
	return &FeeService{
		programStore: programStore,
	}
}

// ComputeBill loads the program's fee schedule and returns all mandatory
// items plus the selected optional ones. Selections add to the mandatory
// subtotal, never replace it; an unknown selection ID is simply ignored.
// Returns ErrFeeScheduleNotFound when the program has no configured
// schedule, so registration can never proceed with a silent zero bill.
func (s *FeeService) ComputeBill(ctx context.Context, programID int64, selectedOptionalFeeIDs []int64) (*models.Bill, error) {
	schedule, err := s.programStore.GetFeeSchedule(ctx, programID)
	if err != nil {
		return nil, fmt.Errorf("error loading fee schedule: %w", err)
	}

	if len(schedule) == 0 {
		return nil, apperrors.ErrFeeScheduleNotFound
	}

	selected := make(map[int64]bool, len(selectedOptionalFeeIDs))
	for _, id := range selectedOptionalFeeIDs {
		selected[id] = true
	}

	bill := &models.Bill{}
	for _, item := range schedule {
		if item.IsMandatory || selected[item.ID] {
			bill.LineItems = append(bill.LineItems, item)
			bill.Total += item.Amount
		}
	}

	return bill, nil
}
