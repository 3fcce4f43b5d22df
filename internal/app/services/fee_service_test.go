package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmende/npi-registration/internal/app/models"
	"github.com/kmende/npi-registration/internal/pkg/apperrors"
)

func seedDCE(store *memPrograms) {
	store.programs[1] = &models.Program{ID: 1, Name: "Diploma in Civil Engineering", Code: "DCE", DurationYears: 3, IsActive: true}
	store.fees[1] = []*models.FeeItem{
		{ID: 1, ProgramID: 1, FeeType: models.FeeTypeTuition, Amount: 2500, IsMandatory: true, AcademicYear: 2024},
		{ID: 2, ProgramID: 1, FeeType: models.FeeTypeProject, Amount: 300, IsMandatory: true, AcademicYear: 2024},
		{ID: 3, ProgramID: 1, FeeType: models.FeeTypeLibrary, Amount: 150, IsMandatory: true, AcademicYear: 2024},
		{ID: 4, ProgramID: 1, FeeType: models.FeeTypeSports, Amount: 100, IsMandatory: false, AcademicYear: 2024},
		{ID: 5, ProgramID: 1, FeeType: models.FeeTypeBoarding, Amount: 1200, IsMandatory: false, AcademicYear: 2024},
	}
}

func TestComputeBillMandatoryOnly(t *testing.T) {
	store := newMemPrograms()
	seedDCE(store)
	svc := NewFeeService(store)

	bill, err := svc.ComputeBill(context.Background(), 1, nil)
	require.NoError(t, err)

	assert.Len(t, bill.LineItems, 3)
	assert.Equal(t, 2950.0, bill.Total)
}

func TestComputeBillWithOptionalSelections(t *testing.T) {
	store := newMemPrograms()
	seedDCE(store)
	svc := NewFeeService(store)

	bill, err := svc.ComputeBill(context.Background(), 1, []int64{5})
	require.NoError(t, err)

	assert.Len(t, bill.LineItems, 4)
	assert.Equal(t, 4150.0, bill.Total)
}

func TestComputeBillIgnoresUnknownSelection(t *testing.T) {
	store := newMemPrograms()
	seedDCE(store)
	svc := NewFeeService(store)

	bill, err := svc.ComputeBill(context.Background(), 1, []int64{999})
	require.NoError(t, err)

	// Unknown IDs add nothing; mandatory items are unaffected
	assert.Equal(t, 2950.0, bill.Total)
}

func TestComputeBillSelectionCannotRemoveMandatory(t *testing.T) {
	store := newMemPrograms()
	seedDCE(store)
	svc := NewFeeService(store)

	// Selecting a mandatory item's ID changes nothing: it was already in
	bill, err := svc.ComputeBill(context.Background(), 1, []int64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 2950.0, bill.Total)
}

func TestComputeBillDeterministic(t *testing.T) {
	store := newMemPrograms()
	seedDCE(store)
	svc := NewFeeService(store)

	first, err := svc.ComputeBill(context.Background(), 1, []int64{4, 5})
	require.NoError(t, err)

	second, err := svc.ComputeBill(context.Background(), 1, []int64{4, 5})
	require.NoError(t, err)

	assert.Equal(t, first.Total, second.Total)
	assert.Equal(t, len(first.LineItems), len(second.LineItems))
}

func TestComputeBillMissingSchedule(t *testing.T) {
	store := newMemPrograms()
	store.programs[2] = &models.Program{ID: 2, Name: "Diploma in Business Studies", Code: "DBS", IsActive: true}
	svc := NewFeeService(store)

	_, err := svc.ComputeBill(context.Background(), 2, nil)
	require.ErrorIs(t, err, apperrors.ErrFeeScheduleNotFound)
}
