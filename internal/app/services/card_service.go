package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kmende/npi-registration/internal/app/models"
)

// idCardValidity is how long an issued student ID card remains valid
const idCardValidity = 4 * 365 * 24 * time.Hour

// CardService issues identity artifacts once the student record exists.
// Issuance guards with check-then-create: an attempt resumed past credential
// issuance gets the existing cards back instead of new numbers.
type CardService struct {
	cardStore CardStore
	now       func() time.Time
}

// NewCardService creates a new card service
func NewCardService(cardStore CardStore) *CardService {
	return &CardService{
		cardStore: cardStore,
		now:       time.Now,
	}
}

// IssueIDCard issues the student ID card with a four year validity. The QR
// payload carries the student and card identifiers; the barcode is the card
// number itself.
func (s *CardService) IssueIDCard(ctx context.Context, studentID int64) (*models.IDCard, error) {
	existing, err := s.cardStore.GetActiveIDCardByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("error checking existing ID card: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	issuedAt := s.now()
	cardNumber := s.timeBasedCardNumber("ID")

	qrPayload, err := json.Marshal(map[string]interface{}{
		"student_id":  studentID,
		"card_number": cardNumber,
	})
	if err != nil {
		return nil, fmt.Errorf("error encoding QR payload: %w", err)
	}

	card := &models.IDCard{
		StudentID:   studentID,
		CardNumber:  cardNumber,
		IssueDate:   issuedAt,
		ExpiryDate:  issuedAt.Add(idCardValidity),
		IsActive:    true,
		QRCodeData:  string(qrPayload),
		BarcodeData: cardNumber,
	}

	if err := s.cardStore.CreateIDCard(ctx, card); err != nil {
		return nil, err
	}

	return card, nil
}

// IssueMealCard issues the student meal card with a zero starting balance.
func (s *CardService) IssueMealCard(ctx context.Context, studentID int64) (*models.MealCard, error) {
	existing, err := s.cardStore.GetActiveMealCardByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("error checking existing meal card: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	card := &models.MealCard{
		StudentID:  studentID,
		CardNumber: s.timeBasedCardNumber("MEAL"),
		Balance:    0,
		IsActive:   true,
		IssuedDate: s.now(),
	}

	if err := s.cardStore.CreateMealCard(ctx, card); err != nil {
		return nil, err
	}

	return card, nil
}

// timeBasedCardNumber derives a card number from the current time, eight
// digits after the prefix.
func (s *CardService) timeBasedCardNumber(prefix string) string {
	return fmt.Sprintf("%s%08d", prefix, s.now().UnixNano()/int64(time.Microsecond)%100000000)
}
