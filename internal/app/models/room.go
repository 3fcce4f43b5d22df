package models

import "time"

// RoomType identifies the dormitory room class an applicant may request
type RoomType string

const (
	RoomTypeStandard RoomType = "standard"
	RoomTypeShared   RoomType = "shared"
	RoomTypeSingle   RoomType = "single"
)

// Room defines a dormitory room based on the 'rooms' table. Shared mutable
// inventory: current_occupancy must never exceed capacity.
type Room struct {
	ID                int64    `json:"id" db:"id" example:"1"`
	RoomNumber        string   `json:"roomNumber" db:"room_number" example:"B-204"`
	RoomType          RoomType `json:"roomType" db:"room_type" example:"shared"`
	Capacity          int      `json:"capacity" db:"capacity" example:"4"`
	CurrentOccupancy  int      `json:"currentOccupancy" db:"current_occupancy" example:"2"`
	GenderRestriction *Gender  `json:"genderRestriction,omitempty" db:"gender_restriction"` // nil means unrestricted
	IsAvailable       bool     `json:"isAvailable" db:"is_available" example:"true"`
}

// RoomAllocation links a student to a room based on the 'room_allocations'
// table. At most one active allocation per student at a time.
type RoomAllocation struct {
	ID            int64     `json:"id" db:"id" example:"1"`
	StudentID     int64     `json:"studentId" db:"student_id" example:"1"`
	RoomID        int64     `json:"roomId" db:"room_id" example:"1"`
	AllocatedDate time.Time `json:"allocatedDate" db:"allocated_date"`
	IsActive      bool      `json:"isActive" db:"is_active" example:"true"`
	FeePaid       bool      `json:"feePaid" db:"fee_paid" example:"false"`

	// Relations (populated when needed)
	Room *Room `json:"room,omitempty"`
}
