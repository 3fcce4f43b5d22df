package models

import "time"

// Student defines the student record based on the 'students' table.
// Created once by the registration orchestrator; later mutated by biometric
// enrollment and academic progression. Never deleted, only deactivated.
type Student struct {
	ID                    int64           `json:"id" db:"id" example:"1"`
	StudentNumber         string          `json:"studentNumber" db:"student_number" example:"NPI2024DCE001"` // Generated identifier, never reused
	ProgramID             int64           `json:"programId" db:"program_id" example:"1"`
	StudentType           StudentType     `json:"studentType" db:"student_type" example:"full_time"`
	StudentCategory       StudentCategory `json:"studentCategory" db:"student_category" example:"boarder"`
	YearLevel             int             `json:"yearLevel" db:"year_level" example:"1"`
	EnrollmentYear        int             `json:"enrollmentYear" db:"enrollment_year" example:"2024"`
	FirstName             string          `json:"firstName" db:"first_name" example:"Anna"`
	LastName              string          `json:"lastName" db:"last_name" example:"Kila"`
	Gender                Gender          `json:"gender" db:"gender" example:"female"`
	DateOfBirth           time.Time       `json:"dateOfBirth" db:"date_of_birth"`
	Email                 string          `json:"email" db:"email" example:"anna.kila@example.com"`
	Phone                 string          `json:"phone" db:"phone" example:"+675 7000 0000"`
	GuardianName          string          `json:"guardianName" db:"guardian_name"`
	GuardianPhone         string          `json:"guardianPhone" db:"guardian_phone"`
	Address               string          `json:"address" db:"address"`
	NationalID            *string         `json:"nationalId,omitempty" db:"national_id"`
	RequiresAccommodation bool            `json:"requiresAccommodation" db:"requires_accommodation"`
	BiometricEnrolled     bool            `json:"biometricEnrolled" db:"biometric_enrolled" example:"false"`
	RegistrationDate      time.Time       `json:"registrationDate" db:"registration_date"`
	IsActive              bool            `json:"isActive" db:"is_active" example:"true"`

	// Relations (populated when needed)
	Program    *Program        `json:"program,omitempty"`
	Payments   []*Payment      `json:"payments,omitempty"`
	Allocation *RoomAllocation `json:"allocation,omitempty"`
	IDCard     *IDCard         `json:"idCard,omitempty"`
	MealCard   *MealCard       `json:"mealCard,omitempty"`
}
