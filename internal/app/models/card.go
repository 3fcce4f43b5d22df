package models

import "time"

// IDCard defines a student identity card based on the 'id_cards' table.
// The card number is immutable after issuance; reissuance is a separate
// operation that deactivates the old card first.
type IDCard struct {
	ID          int64     `json:"id" db:"id" example:"1"`
	StudentID   int64     `json:"studentId" db:"student_id" example:"1"`
	CardNumber  string    `json:"cardNumber" db:"card_number" example:"ID73920014"`
	IssueDate   time.Time `json:"issueDate" db:"issue_date"`
	ExpiryDate  time.Time `json:"expiryDate" db:"expiry_date"` // Issue date plus four years
	IsActive    bool      `json:"isActive" db:"is_active" example:"true"`
	QRCodeData  string    `json:"qrCodeData" db:"qr_code_data"`
	BarcodeData string    `json:"barcodeData" db:"barcode_data"`
}

// MealCard defines a student meal card based on the 'meal_cards' table.
// Issued at registration with a zero balance.
type MealCard struct {
	ID         int64     `json:"id" db:"id" example:"1"`
	StudentID  int64     `json:"studentId" db:"student_id" example:"1"`
	CardNumber string    `json:"cardNumber" db:"card_number" example:"MEAL73920014"`
	Balance    float64   `json:"balance" db:"balance" example:"0"`
	IsActive   bool      `json:"isActive" db:"is_active" example:"true"`
	IssuedDate time.Time `json:"issuedDate" db:"issued_date"`
}
