package models

import (
	"time"

	"github.com/google/uuid"
)

// Evaluation is the graded result for a single question/answer pair.
type Evaluation struct {
	Score        float64  `json:"score"` // 0-100
	Feedback     string   `json:"feedback"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
}

// InterviewResponse is one answered question with its evaluation. Immutable
// once stored; responses are append-only within an interview.
type InterviewResponse struct {
	ID            uuid.UUID `json:"id"`
	InterviewID   uuid.UUID `json:"interview_id"`
	UserID        uuid.UUID `json:"user_id"`
	QuestionIndex int       `json:"question_index"`
	Question      string    `json:"question"`
	Answer        string    `json:"answer"`
	Score         float64   `json:"score"`
	Feedback      string    `json:"feedback"`
	Strengths     []string  `json:"strengths"`
	Improvements  []string  `json:"improvements"`
	CreatedAt     time.Time `json:"created_at"`
}

// EvaluationOf returns the response's evaluation as a value.
func (r *InterviewResponse) EvaluationOf() Evaluation {
	return Evaluation{
		Score:        r.Score,
		Feedback:     r.Feedback,
		Strengths:    r.Strengths,
		Improvements: r.Improvements,
	}
}
