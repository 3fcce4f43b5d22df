package models

import "time"

// Stage is one step of the registration workflow. Stages advance strictly in
// order; the recorded stage is the last one that fully committed, so a resume
// can skip everything up to and including it.
type Stage string

const (
	StageSubmitted              Stage = "submitted"
	StageNumberAssigned         Stage = "number_assigned"
	StageStudentPersisted       Stage = "student_persisted"
	StageBilled                 Stage = "billed"
	StagePaymentsRecorded       Stage = "payments_recorded"
	StageAccommodationAllocated Stage = "accommodation_allocated"
	StageAccommodationDeferred  Stage = "accommodation_deferred"
	StageCredentialsIssued      Stage = "credentials_issued"
	StageCompleted              Stage = "completed"
	StageFailed                 Stage = "failed"
)

// rank orders stages for resume comparisons. The two accommodation outcomes
// share a rank because exactly one of them occurs per attempt.
var stageRank = map[Stage]int{
	StageSubmitted:              0,
	StageNumberAssigned:         1,
	StageStudentPersisted:       2,
	StageBilled:                 3,
	StagePaymentsRecorded:       4,
	StageAccommodationAllocated: 5,
	StageAccommodationDeferred:  5,
	StageCredentialsIssued:      6,
	StageCompleted:              7,
}

// Reached reports whether s already covers the work of target.
func (s Stage) Reached(target Stage) bool {
	return stageRank[s] >= stageRank[target]
}

// RegistrationAttempt persists the workflow state machine alongside the
// student record, based on the 'registration_attempts' table. Keyed by the
// client-supplied request token so a retry resumes instead of restarting.
type RegistrationAttempt struct {
	ID                 int64     `json:"id" db:"id" example:"1"`
	RequestToken       string    `json:"requestToken" db:"request_token" example:"9f1c2ab4-77aa-4f8e-9f3e-0f6a1a2b3c4d"`
	ProgramID          int64     `json:"programId" db:"program_id" example:"1"`
	Stage              Stage     `json:"stage" db:"stage" example:"payments_recorded"`
	StudentNumber      *string   `json:"studentNumber,omitempty" db:"student_number"`
	StudentID          *int64    `json:"studentId,omitempty" db:"student_id"`
	AccommodationState *Stage    `json:"accommodationState,omitempty" db:"accommodation_state"`
	LastError          *string   `json:"lastError,omitempty" db:"last_error"`
	FailedStage        *Stage    `json:"failedStage,omitempty" db:"failed_stage"`
	Resumable          bool      `json:"resumable" db:"resumable"`
	CreatedAt          time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time `json:"updatedAt" db:"updated_at"`
}

// Failed reports whether the attempt terminated with an error.
func (a *RegistrationAttempt) Failed() bool {
	return a.Stage == StageFailed
}

// CanResume reports whether resubmitting the same token could make progress.
// A failure caused by a permanent condition, an unknown program or a missing
// fee schedule, is recorded as non-resumable.
func (a *RegistrationAttempt) CanResume() bool {
	return a.Failed() && a.Resumable
}

// Completed reports whether the attempt ran to the end.
func (a *RegistrationAttempt) Completed() bool {
	return a.Stage == StageCompleted
}

// ResumePoint returns the last stage that fully committed. For a failed
// attempt that is the recorded failed_stage marker, for anything else the
// current stage itself.
func (a *RegistrationAttempt) ResumePoint() Stage {
	if a.Stage == StageFailed && a.FailedStage != nil {
		return *a.FailedStage
	}
	return a.Stage
}
