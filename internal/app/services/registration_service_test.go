package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"

	"github.com/kmende/npi-registration/internal/app/models"
	"github.com/kmende/npi-registration/internal/app/models/dto"
	"github.com/kmende/npi-registration/internal/pkg/apperrors"
)

type RegistrationSuite struct {
	suite.Suite
	ctx      context.Context
	programs *memPrograms
	sequence *memSequence
	students *memStudents
	payments *memPayments
	rooms    *memRooms
	cards    *memCards
	attempts *memAttempts
	audit    *memAudit
	svc      *RegistrationService
}

func (s *RegistrationSuite) SetupTest() {
	s.ctx = context.Background()
	s.programs = newMemPrograms()
	s.sequence = newMemSequence()
	s.students = newMemStudents()
	s.payments = newMemPayments()
	s.rooms = newMemRooms()
	s.cards = newMemCards()
	s.attempts = newMemAttempts()
	s.audit = newMemAudit()

	seedDCE(s.programs)

	s.svc = NewRegistrationService(
		NewSequenceService(s.programs, s.sequence),
		NewFeeService(s.programs),
		NewPaymentService(s.payments, s.audit, zerolog.Nop()),
		NewRoomService(s.rooms, zerolog.Nop()),
		NewCardService(s.cards),
		s.students,
		s.attempts,
		s.audit,
		2,
		time.Millisecond,
		zerolog.Nop(),
	)
}

func TestRegistrationSuite(t *testing.T) {
	suite.Run(t, new(RegistrationSuite))
}

func (s *RegistrationSuite) newRequest() *dto.SubmitRegistrationRequest {
	return &dto.SubmitRegistrationRequest{
		RequestToken:    uuid.New().String(),
		FirstName:       "Anna",
		LastName:        "Kila",
		Email:           "anna.kila@example.com",
		Phone:           "+675 7000 0000",
		DateOfBirth:     time.Date(2005, 6, 15, 0, 0, 0, 0, time.UTC),
		Gender:          models.GenderFemale,
		ProgramID:       1,
		StudentType:     models.StudentTypeFullTime,
		StudentCategory: models.CategoryDayScholar,
		SelectedFeeIDs:  nil,
		PaymentMethod:   models.PaymentMethodOnline,
		ReceiptNumber:   "RCP-0042",
	}
}

func (s *RegistrationSuite) newBoarderRequest() *dto.SubmitRegistrationRequest {
	req := s.newRequest()
	req.StudentCategory = models.CategoryBoarder
	req.RequiresAccommodation = true
	req.RoomPreference = models.RoomTypeShared
	req.SelectedFeeIDs = []int64{5} // boarding fee
	return req
}

func (s *RegistrationSuite) addFemaleRoom() {
	g := models.GenderFemale
	s.rooms.addRoom(&models.Room{
		ID: 1, RoomNumber: "B-101", RoomType: models.RoomTypeShared,
		Capacity: 4, GenderRestriction: &g, IsAvailable: true,
	})
}

func (s *RegistrationSuite) expectedNumber(seq int) string {
	return fmt.Sprintf("NPI%dDCE%03d", time.Now().Year(), seq)
}

func (s *RegistrationSuite) TestDayScholarCompletes() {
	resp, err := s.svc.Submit(s.ctx, s.newRequest(), 1)
	s.Require().NoError(err)

	s.Equal(models.StageCompleted, resp.Stage)
	s.Nil(resp.AccommodationState)
	s.Require().NotNil(resp.Student)
	s.Equal(s.expectedNumber(1), resp.Student.StudentNumber)
	s.Equal(1, resp.Student.YearLevel)
	s.False(resp.Student.BiometricEnrolled)
	s.True(resp.Student.IsActive)

	// Mandatory fees only for a day scholar
	recorded, _ := s.payments.GetByStudent(s.ctx, resp.Student.ID)
	s.Len(recorded, 3)

	// Both credentials issued
	s.Require().NotNil(resp.Student.IDCard)
	s.Require().NotNil(resp.Student.MealCard)
	s.Equal(resp.Student.IDCard.IssueDate.Add(idCardValidity), resp.Student.IDCard.ExpiryDate)

	s.Contains(s.audit.actions(), "registration_number_assigned")
	s.Contains(s.audit.actions(), "registration_payments_recorded")
	s.Contains(s.audit.actions(), "registration_completed")
}

func (s *RegistrationSuite) TestBoarderGetsRoom() {
	s.addFemaleRoom()

	resp, err := s.svc.Submit(s.ctx, s.newBoarderRequest(), 1)
	s.Require().NoError(err)

	s.Equal(models.StageCompleted, resp.Stage)
	s.Require().NotNil(resp.AccommodationState)
	s.Equal(models.StageAccommodationAllocated, *resp.AccommodationState)
	s.Require().NotNil(resp.Student.Allocation)
	s.Equal(int64(1), resp.Student.Allocation.RoomID)
	s.Equal(1, s.rooms.occupancy(1))

	// Boarding fee was selected on top of the mandatory items
	recorded, _ := s.payments.GetByStudent(s.ctx, resp.Student.ID)
	s.Len(recorded, 4)
}

func (s *RegistrationSuite) TestNoRoomDefersAccommodation() {
	// No rooms at all: the workflow must still complete
	resp, err := s.svc.Submit(s.ctx, s.newBoarderRequest(), 1)
	s.Require().NoError(err)

	s.Equal(models.StageCompleted, resp.Stage)
	s.Require().NotNil(resp.AccommodationState)
	s.Equal(models.StageAccommodationDeferred, *resp.AccommodationState)
	s.Nil(resp.Student.Allocation)

	// Credentials are still issued for a deferred boarder
	s.NotNil(resp.Student.IDCard)
	s.NotNil(resp.Student.MealCard)

	s.Contains(s.audit.actions(), "registration_accommodation_deferred")
	s.Contains(s.audit.actions(), "registration_completed")
}

func (s *RegistrationSuite) TestCompletedTokenRejected() {
	req := s.newRequest()
	_, err := s.svc.Submit(s.ctx, req, 1)
	s.Require().NoError(err)

	_, err = s.svc.Submit(s.ctx, req, 1)
	s.Require().ErrorIs(err, apperrors.ErrDuplicateSubmission)

	// The duplicate changed nothing
	s.Equal(1, s.students.count())
	s.Equal(3, s.payments.count())
}

func (s *RegistrationSuite) TestTokenReuseAcrossProgramsRejected() {
	s.programs.programs[2] = &models.Program{ID: 2, Code: "DEE", IsActive: true}
	s.programs.fees[2] = s.programs.fees[1]

	req := s.newRequest()
	// Force a failure so the attempt stays open
	s.payments.failures = 10
	s.payments.failWith = apperrors.NewCustomError(apperrors.ErrPersistenceTimeout, "timeout")
	_, err := s.svc.Submit(s.ctx, req, 1)
	s.Require().Error(err)

	req.ProgramID = 2
	_, err = s.svc.Submit(s.ctx, req, 1)
	s.Require().ErrorIs(err, apperrors.ErrBadRequest)
}

func (s *RegistrationSuite) TestTransientErrorRetriedWithinBound() {
	s.payments.failures = 2 // two retries allowed, third call succeeds
	s.payments.failWith = apperrors.NewCustomError(apperrors.ErrPersistenceTimeout, "timeout")

	resp, err := s.svc.Submit(s.ctx, s.newRequest(), 1)
	s.Require().NoError(err)
	s.Equal(models.StageCompleted, resp.Stage)
}

func (s *RegistrationSuite) TestFailureThenResume() {
	req := s.newRequest()

	s.payments.failures = 10
	s.payments.failWith = apperrors.NewCustomError(apperrors.ErrPersistenceTimeout, "timeout")

	_, err := s.svc.Submit(s.ctx, req, 1)
	s.Require().Error(err)

	var regErr *RegistrationError
	s.Require().ErrorAs(err, &regErr)
	s.Equal(models.StagePaymentsRecorded, regErr.Stage)
	s.True(regErr.Resumable)

	attempt, err := s.attempts.GetByToken(s.ctx, req.RequestToken)
	s.Require().NoError(err)
	s.True(attempt.Failed())
	s.Require().NotNil(attempt.FailedStage)
	s.Equal(models.StageBilled, *attempt.FailedStage)
	s.Require().NotNil(attempt.LastError)

	firstNumber := *attempt.StudentNumber

	// The store recovers; resubmitting the same token resumes
	s.payments.failures = 0
	resp, err := s.svc.Submit(s.ctx, req, 1)
	s.Require().NoError(err)

	s.Equal(models.StageCompleted, resp.Stage)
	s.Equal(firstNumber, resp.Student.StudentNumber)

	// Resume reused the committed stages: one student, one number, one
	// payment set
	s.Equal(1, s.students.count())
	s.Equal(3, s.payments.count())
	s.Len(s.sequence.counters, 1)
	s.Equal(1, s.sequence.counters[fmt.Sprintf("1/%d", time.Now().Year())])
}

func (s *RegistrationSuite) TestFailedResumeSkipsCredentialReissue() {
	req := s.newRequest()

	s.payments.failures = 10
	s.payments.failWith = apperrors.NewCustomError(apperrors.ErrPersistenceTimeout, "timeout")
	_, err := s.svc.Submit(s.ctx, req, 1)
	s.Require().Error(err)

	s.payments.failures = 0
	first, err := s.svc.Submit(s.ctx, req, 1)
	s.Require().NoError(err)

	// A failed attempt resumed twice must not issue new cards
	card, err := s.cards.GetActiveIDCardByStudent(s.ctx, first.Student.ID)
	s.Require().NoError(err)
	s.Equal(first.Student.IDCard.CardNumber, card.CardNumber)
}

func (s *RegistrationSuite) TestConcurrentSameTokenRegistersOnce() {
	// Widen the window between attempt resolution and the first stage
	// commit so both submissions resolve the attempt at 'submitted'.
	s.sequence.delay = 50 * time.Millisecond
	req := s.newRequest()

	type result struct {
		resp *dto.RegistrationResponse
		err  error
	}
	results := make(chan result, 2)
	for i := 0; i < 2; i++ {
		go func() {
			resp, err := s.svc.Submit(s.ctx, req, 1)
			results <- result{resp, err}
		}()
	}

	var successes, failures int
	for i := 0; i < 2; i++ {
		r := <-results
		if r.err != nil {
			failures++
			continue
		}
		successes++
		s.Equal(models.StageCompleted, r.resp.Stage)
	}

	// Exactly one submission owns the attempt; the other loses the stage
	// compare-and-set and aborts without side effects of its own.
	s.Equal(1, successes)
	s.Equal(1, failures)
	s.Equal(1, s.students.count())
	s.Equal(3, s.payments.count())

	attempt, err := s.attempts.GetByToken(s.ctx, req.RequestToken)
	s.Require().NoError(err)
	s.True(attempt.Completed(), "the losing submission must not overwrite the winner's state")
}

func (s *RegistrationSuite) TestResumeAfterCredentialsRehydratesCards() {
	req := s.newRequest()

	// Only the completion transition fails: credentials are committed.
	s.attempts.failOn = models.StageCompleted
	s.attempts.failWith = apperrors.NewCustomError(apperrors.ErrPersistenceTimeout, "timeout")

	_, err := s.svc.Submit(s.ctx, req, 1)
	s.Require().Error(err)

	attempt, err := s.attempts.GetByToken(s.ctx, req.RequestToken)
	s.Require().NoError(err)
	s.Require().NotNil(attempt.FailedStage)
	s.Equal(models.StageCredentialsIssued, *attempt.FailedStage)

	resp, err := s.svc.Submit(s.ctx, req, 1)
	s.Require().NoError(err)
	s.Equal(models.StageCompleted, resp.Stage)

	// The skipped issuance stage still reports the cards already on file
	s.Require().NotNil(resp.Student.IDCard)
	s.Require().NotNil(resp.Student.MealCard)
	card, err := s.cards.GetActiveIDCardByStudent(s.ctx, resp.Student.ID)
	s.Require().NoError(err)
	s.Equal(card.CardNumber, resp.Student.IDCard.CardNumber)
}

func (s *RegistrationSuite) TestUnknownProgramNotResumable() {
	req := s.newRequest()
	req.ProgramID = 42

	_, err := s.svc.Submit(s.ctx, req, 1)
	s.Require().Error(err)

	var regErr *RegistrationError
	s.Require().ErrorAs(err, &regErr)
	s.Equal(models.StageNumberAssigned, regErr.Stage)
	s.False(regErr.Resumable)
	s.ErrorIs(regErr.Err, apperrors.ErrScopeNotFound)

	// The status endpoint reports the same permanence
	status, err := s.svc.GetAttemptStatus(s.ctx, req.RequestToken)
	s.Require().NoError(err)
	s.Equal(models.StageFailed, status.Stage)
	s.False(status.Resumable)
}

func (s *RegistrationSuite) TestMissingFeeScheduleFailsBeforePayments() {
	s.programs.programs[2] = &models.Program{ID: 2, Code: "DEE", IsActive: true}
	// No fee schedule for program 2

	req := s.newRequest()
	req.ProgramID = 2

	_, err := s.svc.Submit(s.ctx, req, 1)
	s.Require().Error(err)

	var regErr *RegistrationError
	s.Require().ErrorAs(err, &regErr)
	s.Equal(models.StageBilled, regErr.Stage)
	s.False(regErr.Resumable)
	s.ErrorIs(regErr.Err, apperrors.ErrFeeScheduleNotFound)

	// The student record exists but no payments were written
	s.Equal(1, s.students.count())
	s.Equal(0, s.payments.count())
}

func (s *RegistrationSuite) TestGetAttemptStatus() {
	req := s.newRequest()

	s.payments.failures = 10
	s.payments.failWith = apperrors.NewCustomError(apperrors.ErrPersistenceTimeout, "timeout")
	_, err := s.svc.Submit(s.ctx, req, 1)
	s.Require().Error(err)

	status, err := s.svc.GetAttemptStatus(s.ctx, req.RequestToken)
	s.Require().NoError(err)

	s.Equal(models.StageFailed, status.Stage)
	s.True(status.Resumable)
	s.Require().NotNil(status.FailedStage)
	s.Equal(models.StageBilled, *status.FailedStage)
	s.NotNil(status.LastError)
	s.Require().NotNil(status.Student)
	s.Equal(s.expectedNumber(1), status.Student.StudentNumber)
}

func (s *RegistrationSuite) TestGetAttemptStatusUnknownToken() {
	_, err := s.svc.GetAttemptStatus(s.ctx, uuid.New().String())
	s.Require().ErrorIs(err, apperrors.ErrAttemptNotFound)
}

func (s *RegistrationSuite) TestConcurrentSubmissionsGetDistinctNumbers() {
	type result struct {
		resp *dto.RegistrationResponse
		err  error
	}

	const submissions = 10
	results := make(chan result, submissions)

	for i := 0; i < submissions; i++ {
		go func(i int) {
			req := s.newRequest()
			req.Email = fmt.Sprintf("applicant%d@example.com", i)
			resp, err := s.svc.Submit(s.ctx, req, 1)
			results <- result{resp, err}
		}(i)
	}

	seen := make(map[string]bool, submissions)
	for i := 0; i < submissions; i++ {
		r := <-results
		s.Require().NoError(r.err)
		number := r.resp.Student.StudentNumber
		s.False(seen[number], "student number %s issued twice", number)
		seen[number] = true
	}

	s.Equal(submissions, s.students.count())
}
