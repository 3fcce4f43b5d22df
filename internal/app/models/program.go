package models

// Program defines an academic program based on the 'programs' table.
// Program codes form part of the student number (NPI<year><code><seq>).
type Program struct {
	ID            int64  `json:"id" db:"id" example:"1"`
	Name          string `json:"name" db:"name" example:"Diploma in Civil Engineering"`
	Code          string `json:"code" db:"code" example:"DCE"`
	DurationYears int    `json:"durationYears" db:"duration_years" example:"3"`
	IsActive      bool   `json:"isActive" db:"is_active" example:"true"`
}
