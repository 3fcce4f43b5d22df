package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/kmende/npi-registration/internal/app/metrics"
	"github.com/kmende/npi-registration/internal/app/models"
	"github.com/kmende/npi-registration/internal/app/models/dto"
	"github.com/kmende/npi-registration/internal/pkg/apperrors"
)

// RegistrationError is the terminal failure of a registration attempt. It
// records the stage that could not be completed; the attempt itself stays
// resumable under the same request token unless the cause was permanent
// (invalid program, missing fee schedule).
type RegistrationError struct {
	Stage     models.Stage
	Err       error
	Resumable bool
}

// Error implements the error interface
func (e *RegistrationError) Error() string {
	return fmt.Sprintf("registration failed at stage %s: %v", e.Stage, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is checks
func (e *RegistrationError) Unwrap() error {
	return e.Err
}

// RegistrationService orchestrates the registration workflow: number
// assignment, student creation, billing, payment recording, accommodation
// and credential issuance, in that order. Each completed stage is committed
// to the attempt record before the next starts, so a crash or failure can
// resume from the last committed stage with no duplicated side effects.
type RegistrationService struct {
	sequenceService *SequenceService
	feeService      *FeeService
	paymentService  *PaymentService
	roomService     *RoomService
	cardService     *CardService
	studentStore    StudentStore
	attemptStore    AttemptStore
	auditStore      AuditStore
	retryAttempts   int
	retryBackoff    time.Duration
	logger          zerolog.Logger
}

// NewRegistrationService creates a new registration orchestrator
func NewRegistrationService(
	sequenceService *SequenceService,
	feeService *FeeService,
	paymentService *PaymentService,
	roomService *RoomService,
	cardService *CardService,
	studentStore StudentStore,
	attemptStore AttemptStore,
	auditStore AuditStore,
	retryAttempts int,
	retryBackoff time.Duration,
	logger zerolog.Logger,
) *RegistrationService {
	return &RegistrationService{
		sequenceService: sequenceService,
		feeService:      feeService,
		paymentService:  paymentService,
		roomService:     roomService,
		cardService:     cardService,
		studentStore:    studentStore,
		attemptStore:    attemptStore,
		auditStore:      auditStore,
		retryAttempts:   retryAttempts,
		retryBackoff:    retryBackoff,
		logger:          logger,
	}
}

// Submit runs the registration workflow for one applicant submission.
// Submitting a request token that maps to an unfinished or failed attempt
// resumes it from the last committed stage; a token that maps to a completed
// attempt returns ErrDuplicateSubmission.
func (s *RegistrationService) Submit(ctx context.Context, req *dto.SubmitRegistrationRequest, actorID int64) (*dto.RegistrationResponse, error) {
	start := time.Now()
	defer func() {
		metrics.SubmissionDuration.Observe(time.Since(start).Seconds())
	}()

	attempt, err := s.resolveAttempt(ctx, req)
	if err != nil {
		return nil, err
	}

	enrollmentYear := time.Now().Year()

	// Stage: number assignment. The reserved number is recorded on the
	// attempt before it is ever used, so a resume reuses it instead of
	// burning another sequence value.
	err = s.runStage(ctx, attempt, models.StageNumberAssigned, actorID, func(ctx context.Context) error {
		number, err := s.sequenceService.NextStudentNumber(ctx, req.ProgramID, enrollmentYear)
		if err != nil {
			return err
		}
		attempt.StudentNumber = &number
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, attempt, models.StageNumberAssigned, actorID, err)
	}

	// Stage: student record
	var student *models.Student
	if attempt.ResumePoint().Reached(models.StageStudentPersisted) {
		student, err = s.studentStore.GetByID(ctx, *attempt.StudentID)
		if err != nil {
			return nil, s.fail(ctx, attempt, models.StageStudentPersisted, actorID, err)
		}
	} else {
		err = s.runStage(ctx, attempt, models.StageStudentPersisted, actorID, func(ctx context.Context) error {
			student = s.buildStudent(req, *attempt.StudentNumber, enrollmentYear)
			if err := s.studentStore.Create(ctx, student); err != nil {
				return err
			}
			attempt.StudentID = &student.ID
			return nil
		})
		if err != nil {
			return nil, s.fail(ctx, attempt, models.StageStudentPersisted, actorID, err)
		}
	}

	// Stage: billing. The bill is deterministic for a given program and
	// selection set, so it is recomputed on resume rather than persisted.
	bill, err := s.feeService.ComputeBill(ctx, req.ProgramID, req.SelectedFeeIDs)
	if err != nil {
		return nil, s.fail(ctx, attempt, models.StageBilled, actorID, err)
	}
	err = s.runStage(ctx, attempt, models.StageBilled, actorID, func(ctx context.Context) error {
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, attempt, models.StageBilled, actorID, err)
	}

	// Stage: payment recording. The store deduplicates on (student, fee
	// item), so re-running this stage never writes duplicate rows.
	err = s.runStage(ctx, attempt, models.StagePaymentsRecorded, actorID, func(ctx context.Context) error {
		_, err := s.paymentService.RecordBill(ctx, student.ID, bill, req.PaymentMethod, req.ReceiptNumber, req.PaymentProofURL)
		return err
	})
	if err != nil {
		return nil, s.fail(ctx, attempt, models.StagePaymentsRecorded, actorID, err)
	}

	// Stage: accommodation. Exhausted inventory is not a failure: the
	// attempt records the deferred state and the workflow continues.
	if err := s.runAccommodationStage(ctx, attempt, student, req, actorID); err != nil {
		return nil, s.fail(ctx, attempt, models.StageAccommodationAllocated, actorID, err)
	}

	// Stage: credentials. Issuance is check-then-create, so running it on a
	// resumed attempt returns the cards already on file instead of minting
	// new numbers; the same call rehydrates them when the stage itself was
	// committed on an earlier run.
	issueCredentials := func(ctx context.Context) error {
		idCard, err := s.cardService.IssueIDCard(ctx, student.ID)
		if err != nil {
			return err
		}
		mealCard, err := s.cardService.IssueMealCard(ctx, student.ID)
		if err != nil {
			return err
		}
		student.IDCard = idCard
		student.MealCard = mealCard
		return nil
	}
	if attempt.ResumePoint().Reached(models.StageCredentialsIssued) {
		err = s.withRetry(ctx, models.StageCredentialsIssued, issueCredentials)
	} else {
		err = s.runStage(ctx, attempt, models.StageCredentialsIssued, actorID, issueCredentials)
	}
	if err != nil {
		return nil, s.fail(ctx, attempt, models.StageCredentialsIssued, actorID, err)
	}

	// Stage: completion
	err = s.runStage(ctx, attempt, models.StageCompleted, actorID, func(ctx context.Context) error {
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, attempt, models.StageCompleted, actorID, err)
	}

	metrics.RegistrationsCompleted.Inc()
	s.appendAudit(ctx, attempt.StudentID, "registration_completed", actorID, map[string]interface{}{
		"request_token":  attempt.RequestToken,
		"student_number": *attempt.StudentNumber,
		"program_id":     attempt.ProgramID,
		"payment_method": req.PaymentMethod,
	})

	s.logger.Info().
		Str("studentNumber", *attempt.StudentNumber).
		Int64("programId", attempt.ProgramID).
		Str("requestToken", attempt.RequestToken).
		Msg("Registration completed")

	return &dto.RegistrationResponse{
		Student:            student,
		Stage:              attempt.Stage,
		AccommodationState: attempt.AccommodationState,
	}, nil
}

// GetAttemptStatus reports the state machine of one attempt by its request
// token, including the student record once it exists.
func (s *RegistrationService) GetAttemptStatus(ctx context.Context, token string) (*dto.AttemptStatusResponse, error) {
	attempt, err := s.attemptStore.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	resp := &dto.AttemptStatusResponse{
		RequestToken:       attempt.RequestToken,
		Stage:              attempt.Stage,
		FailedStage:        attempt.FailedStage,
		LastError:          attempt.LastError,
		Resumable:          attempt.CanResume(),
		AccommodationState: attempt.AccommodationState,
	}

	if attempt.StudentID != nil {
		student, err := s.studentStore.GetByID(ctx, *attempt.StudentID)
		if err != nil && !errors.Is(err, apperrors.ErrStudentNotFound) {
			return nil, err
		}
		resp.Student = student
	}

	return resp, nil
}

// resolveAttempt creates the attempt record for a fresh token, or loads the
// existing one for a resubmission. A token that already ran to completion
// is rejected; a token reused with a different program is a client error.
func (s *RegistrationService) resolveAttempt(ctx context.Context, req *dto.SubmitRegistrationRequest) (*models.RegistrationAttempt, error) {
	attempt := &models.RegistrationAttempt{
		RequestToken: req.RequestToken,
		ProgramID:    req.ProgramID,
		Stage:        models.StageSubmitted,
		Resumable:    true,
	}

	err := s.attemptStore.Create(ctx, attempt)
	if err == nil {
		return attempt, nil
	}
	if !errors.Is(err, apperrors.ErrDuplicateSubmission) {
		return nil, err
	}

	existing, err := s.attemptStore.GetByToken(ctx, req.RequestToken)
	if err != nil {
		return nil, err
	}

	if existing.Completed() {
		return nil, apperrors.NewCustomError(apperrors.ErrDuplicateSubmission,
			"this submission was already completed").WithDetails(map[string]interface{}{
			"requestToken":  existing.RequestToken,
			"studentNumber": existing.StudentNumber,
		})
	}

	if existing.ProgramID != req.ProgramID {
		return nil, apperrors.NewBadRequestError("request token was already used for a different program")
	}

	s.logger.Info().
		Str("requestToken", existing.RequestToken).
		Str("resumeFrom", string(existing.ResumePoint())).
		Msg("Resuming registration attempt")

	return existing, nil
}

// runStage executes one workflow stage and commits the transition. Stages
// the attempt already reached are skipped. Transient persistence errors are
// retried with a fixed backoff before giving up.
func (s *RegistrationService) runStage(ctx context.Context, attempt *models.RegistrationAttempt, target models.Stage, actorID int64, fn func(ctx context.Context) error) error {
	if attempt.ResumePoint().Reached(target) {
		return nil
	}

	if err := s.withRetry(ctx, target, fn); err != nil {
		return err
	}

	return s.advance(ctx, attempt, target, actorID, nil)
}

// runAccommodationStage handles the one stage whose outcome forks. Students
// not needing accommodation pass straight through; boarders either get an
// allocation or the deferred marker when inventory is exhausted.
func (s *RegistrationService) runAccommodationStage(ctx context.Context, attempt *models.RegistrationAttempt, student *models.Student, req *dto.SubmitRegistrationRequest, actorID int64) error {
	if attempt.ResumePoint().Reached(models.StageAccommodationAllocated) {
		return nil
	}

	target := models.StageAccommodationAllocated
	var details map[string]interface{}

	if student.RequiresAccommodation {
		var allocation *models.RoomAllocation
		err := s.withRetry(ctx, target, func(ctx context.Context) error {
			var err error
			allocation, err = s.roomService.Allocate(ctx, student.ID, req.RoomPreference, student.Gender)
			return err
		})
		switch {
		case errors.Is(err, apperrors.ErrNoRoomAvailable):
			target = models.StageAccommodationDeferred
			metrics.AccommodationDeferred.Inc()
			s.logger.Warn().
				Int64("studentId", student.ID).
				Str("roomPreference", string(req.RoomPreference)).
				Msg("No room available, deferring accommodation")
		case err != nil:
			return err
		default:
			student.Allocation = allocation
			details = map[string]interface{}{"room_id": allocation.RoomID}
		}

		state := target
		attempt.AccommodationState = &state
	}

	return s.advance(ctx, attempt, target, actorID, details)
}

// withRetry runs fn, retrying transient persistence errors up to the
// configured bound. Non-transient errors return immediately.
func (s *RegistrationService) withRetry(ctx context.Context, stage models.Stage, fn func(ctx context.Context) error) error {
	var err error
	for try := 0; ; try++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if !apperrors.IsTransient(err) || try >= s.retryAttempts {
			return err
		}

		metrics.StageRetries.WithLabelValues(string(stage)).Inc()
		s.logger.Warn().Err(err).
			Str("stage", string(stage)).
			Int("attempt", try+1).
			Msg("Transient error, retrying stage")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.retryBackoff):
		}
	}
}

// advance commits a stage transition and appends its audit entry. The
// transition write is part of the stage: if it fails, the stage is treated
// as not completed. The commit is a compare-and-set on the stage the attempt
// was last seen at, so of two submissions racing on one token only one
// transition lands and the other aborts before its next stage runs.
func (s *RegistrationService) advance(ctx context.Context, attempt *models.RegistrationAttempt, target models.Stage, actorID int64, details map[string]interface{}) error {
	expected := attempt.Stage
	attempt.Stage = target
	if err := s.attemptStore.AdvanceStage(ctx, attempt, expected); err != nil {
		attempt.Stage = expected
		return fmt.Errorf("error committing stage %s: %w", target, err)
	}
	attempt.Resumable = true

	if details == nil {
		details = map[string]interface{}{}
	}
	details["request_token"] = attempt.RequestToken
	s.appendAudit(ctx, attempt.StudentID, "registration_"+string(target), actorID, details)

	return nil
}

// fail marks the attempt failed and wraps the cause. The recorded resume
// point is the last committed stage, so a resubmission with the same token
// picks up right after it. errs that are already the duplicate-submission
// rejection pass through untouched.
func (s *RegistrationService) fail(ctx context.Context, attempt *models.RegistrationAttempt, stage models.Stage, actorID int64, cause error) error {
	lastCompleted := attempt.ResumePoint()
	resumable := s.resumable(cause)

	// Guarded by the stage this submission last saw: if the attempt moved
	// on under a concurrent submission, the failure marker is dropped
	// rather than stamped over the other worker's progress.
	if markErr := s.attemptStore.MarkFailed(ctx, attempt.ID, attempt.Stage, lastCompleted, resumable, cause.Error()); markErr != nil {
		s.logger.Warn().Err(markErr).
			Str("requestToken", attempt.RequestToken).
			Msg("Did not record attempt failure")
	}

	metrics.RegistrationsFailed.WithLabelValues(string(stage)).Inc()
	s.appendAudit(ctx, attempt.StudentID, "registration_failed", actorID, map[string]interface{}{
		"request_token":  attempt.RequestToken,
		"failed_stage":   stage,
		"last_completed": lastCompleted,
		"reason":         cause.Error(),
	})

	s.logger.Error().Err(cause).
		Str("requestToken", attempt.RequestToken).
		Str("stage", string(stage)).
		Str("lastCompleted", string(lastCompleted)).
		Msg("Registration failed")

	return &RegistrationError{
		Stage:     stage,
		Err:       cause,
		Resumable: resumable,
	}
}

// resumable reports whether retrying the same submission could succeed.
// Scope and schedule lookups are configuration problems, not transient state.
func (s *RegistrationService) resumable(cause error) bool {
	switch {
	case errors.Is(cause, apperrors.ErrScopeNotFound),
		errors.Is(cause, apperrors.ErrFeeScheduleNotFound),
		errors.Is(cause, apperrors.ErrInvariantViolation),
		errors.Is(cause, apperrors.ErrBadRequest):
		return false
	}
	return true
}

func (s *RegistrationService) buildStudent(req *dto.SubmitRegistrationRequest, studentNumber string, enrollmentYear int) *models.Student {
	return &models.Student{
		StudentNumber:         studentNumber,
		ProgramID:             req.ProgramID,
		StudentType:           req.StudentType,
		StudentCategory:       req.StudentCategory,
		YearLevel:             1,
		EnrollmentYear:        enrollmentYear,
		FirstName:             req.FirstName,
		LastName:              req.LastName,
		Gender:                req.Gender,
		DateOfBirth:           req.DateOfBirth,
		Email:                 req.Email,
		Phone:                 req.Phone,
		GuardianName:          req.GuardianName,
		GuardianPhone:         req.GuardianPhone,
		Address:               req.Address,
		NationalID:            req.NationalID,
		RequiresAccommodation: req.RequiresAccommodation,
		BiometricEnrolled:     false,
		RegistrationDate:      time.Now(),
		IsActive:              true,
	}
}

// appendAudit writes one audit entry, logging instead of failing the
// workflow when the write does not land.
func (s *RegistrationService) appendAudit(ctx context.Context, studentID *int64, action string, actorID int64, details map[string]interface{}) {
	entry := &models.AuditEntry{
		StudentID: studentID,
		Action:    action,
		ActorID:   actorID,
		Details:   details,
	}
	if err := s.auditStore.Append(ctx, entry); err != nil {
		s.logger.Error().Err(err).Str("action", action).Msg("Failed to append audit entry")
	}
}
