package models

import "time"

// AuditEntry is one append-only row of the registration audit trail, based
// on the 'audit_log' table. Details is stored as JSONB.
type AuditEntry struct {
	ID        int64                  `json:"id" db:"id" example:"1"`
	StudentID *int64                 `json:"studentId,omitempty" db:"student_id"`
	Action    string                 `json:"action" db:"action" example:"payments_recorded"`
	ActorID   int64                  `json:"actorId" db:"actor_id" example:"7"`
	Details   map[string]interface{} `json:"details,omitempty" db:"details"`
	Timestamp time.Time              `json:"timestamp" db:"timestamp"`
}
