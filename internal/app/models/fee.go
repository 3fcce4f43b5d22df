package models

// FeeType identifies a fee line item category
type FeeType string

const (
	FeeTypeTuition  FeeType = "tuition"
	FeeTypeProject  FeeType = "project"
	FeeTypeLibrary  FeeType = "library"
	FeeTypeSports   FeeType = "sports"
	FeeTypeBoarding FeeType = "boarding"
	FeeTypeOther    FeeType = "other"
)

// FeeItem defines one line of a program's fee schedule based on the
// 'fee_items' table. Read-only reference data owned by program
// configuration; registration only reads it.
type FeeItem struct {
	ID           int64   `json:"id" db:"id" example:"1"`
	ProgramID    int64   `json:"programId" db:"program_id" example:"1"`
	FeeType      FeeType `json:"feeType" db:"fee_type" example:"tuition"`
	Amount       float64 `json:"amount" db:"amount" example:"2500"`
	IsMandatory  bool    `json:"isMandatory" db:"is_mandatory" example:"true"`
	AcademicYear int     `json:"academicYear" db:"academic_year" example:"2024"`
}

// Bill is the computed payable set for one applicant: all mandatory items of
// the program's schedule plus the selected optional ones.
type Bill struct {
	LineItems []*FeeItem `json:"lineItems"`
	Total     float64    `json:"total" example:"2950"`
}
