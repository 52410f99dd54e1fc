package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionEvent is one row of the session activity log: a session started or
// finished against an interview. Feeds the dashboard's recent-activity list.
type SessionEvent struct {
	ID          uuid.UUID  `json:"id"`
	InterviewID uuid.UUID  `json:"interview_id"`
	UserID      uuid.UUID  `json:"user_id"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	Outcome     string     `json:"outcome,omitempty"` // "completed", "abandoned"
}
