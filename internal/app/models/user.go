package models

import "time"

// User defines a staff account based on the 'users' table. Registrars submit
// registrations, bursars verify payments.
type User struct {
	ID        int64     `json:"id" db:"id" example:"1"`
	Email     string    `json:"email" db:"email" example:"registrar@npi.ac.pg"`
	Password  string    `json:"-" db:"password"` // bcrypt hash, never serialized
	FullName  string    `json:"fullName" db:"full_name" example:"Martha Waiko"`
	Role      RoleType  `json:"role" db:"role" example:"REGISTRAR"`
	IsActive  bool      `json:"isActive" db:"is_active" example:"true"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
