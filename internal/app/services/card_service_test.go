package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueIDCard(t *testing.T) {
	svc := NewCardService(newMemCards())
	issuedAt := time.Date(2024, 2, 12, 9, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return issuedAt }

	card, err := svc.IssueIDCard(context.Background(), 7)
	require.NoError(t, err)

	assert.Regexp(t, `^ID\d{8}$`, card.CardNumber)
	assert.Equal(t, issuedAt, card.IssueDate)
	assert.Equal(t, issuedAt.Add(idCardValidity), card.ExpiryDate)
	assert.True(t, card.IsActive)
	assert.Equal(t, card.CardNumber, card.BarcodeData)

	var qr struct {
		StudentID  int64  `json:"student_id"`
		CardNumber string `json:"card_number"`
	}
	require.NoError(t, json.Unmarshal([]byte(card.QRCodeData), &qr))
	assert.Equal(t, int64(7), qr.StudentID)
	assert.Equal(t, card.CardNumber, qr.CardNumber)
}

func TestIssueIDCardIdempotent(t *testing.T) {
	svc := NewCardService(newMemCards())

	first, err := svc.IssueIDCard(context.Background(), 7)
	require.NoError(t, err)

	second, err := svc.IssueIDCard(context.Background(), 7)
	require.NoError(t, err)

	// The active card is returned, no second number is issued
	assert.Equal(t, first.CardNumber, second.CardNumber)
	assert.Equal(t, first.ID, second.ID)
}

func TestIssueMealCard(t *testing.T) {
	svc := NewCardService(newMemCards())

	card, err := svc.IssueMealCard(context.Background(), 7)
	require.NoError(t, err)

	assert.Regexp(t, `^MEAL\d{8}$`, card.CardNumber)
	assert.Zero(t, card.Balance)
	assert.True(t, card.IsActive)
}

func TestIssueMealCardIdempotent(t *testing.T) {
	svc := NewCardService(newMemCards())

	first, err := svc.IssueMealCard(context.Background(), 7)
	require.NoError(t, err)

	second, err := svc.IssueMealCard(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, first.CardNumber, second.CardNumber)
}
