package models

import (
	"time"

	"github.com/google/uuid"
)

// InterviewSummary is the terminal record for a finished interview,
// aggregating all responses into one assessment.
type InterviewSummary struct {
	ID              uuid.UUID `json:"id"`
	InterviewID     uuid.UUID `json:"interview_id"`
	UserID          uuid.UUID `json:"user_id"`
	TotalQuestions  int       `json:"total_questions"`
	AnsweredCount   int       `json:"answered_count"`
	AverageScore    float64   `json:"average_score"`
	DurationMinutes int       `json:"duration_minutes"`
	Assessment      string    `json:"assessment"`
	Strengths       []string  `json:"strengths"`
	Improvements    []string  `json:"improvements"`
	CreatedAt       time.Time `json:"created_at"`
}
