package models

import (
	"time"

	"github.com/google/uuid"
)

// Interview is a prepared mock interview: a fixed, ordered question list for
// one user. Questions are immutable once the interview is created.
type Interview struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	Role       string    `json:"role"`
	Level      string    `json:"level"`
	Type       string    `json:"type"` // "technical", "behavioral", "mixed"
	TechStack  []string  `json:"tech_stack,omitempty"`
	Questions  []string  `json:"questions"`
	Finalized  bool      `json:"finalized"`
	ArchiveKey string    `json:"archive_key,omitempty"` // S3 key of the exported transcript, set by the worker
	CreatedAt  time.Time `json:"created_at"`
}

// QuestionCount returns the number of questions in the interview.
func (i *Interview) QuestionCount() int {
	return len(i.Questions)
}

// LastQuestionIndex reports whether idx addresses the final question.
func (i *Interview) LastQuestionIndex(idx int) bool {
	return len(i.Questions) > 0 && idx == len(i.Questions)-1
}
