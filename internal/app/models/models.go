package models

// RoleType defines the staff user role type
type RoleType string

const (
	RoleRegistrar RoleType = "REGISTRAR"
	RoleBursar    RoleType = "BURSAR"
	RoleAdmin     RoleType = "ADMIN"
)

// Gender values as recorded on the applicant submission
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// StudentType defines the enrollment mode of a student
type StudentType string

const (
	StudentTypeFullTime           StudentType = "full_time"
	StudentTypePartTime           StudentType = "part_time"
	StudentTypeCertification      StudentType = "certification"
	StudentTypeIndustrialTraining StudentType = "industrial_training"
)

// StudentCategory distinguishes boarders from day scholars
type StudentCategory string

const (
	CategoryDayScholar StudentCategory = "day_scholar"
	CategoryBoarder    StudentCategory = "boarder"
)

// PaymentMethod is how the applicant paid the registration bill
type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodOnline PaymentMethod = "online"
	PaymentMethodBank   PaymentMethod = "bank_deposit"
)
