package evaluations

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prepify/backend/internal/models"
)

// Repository handles response and summary persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an evaluations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateResponse inserts one graded response. The unique index on
// (interview_id, question_index) rejects a second response for the same
// question.
func (r *Repository) CreateResponse(ctx context.Context, resp *models.InterviewResponse) error {
	const query = `INSERT INTO interview_responses
			(id, interview_id, user_id, question_index, question, answer, score, feedback, strengths, improvements)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		resp.InterviewID, resp.UserID, resp.QuestionIndex, resp.Question, resp.Answer,
		resp.Score, resp.Feedback, resp.Strengths, resp.Improvements).
		Scan(&resp.ID, &resp.CreatedAt)
}

// ListByInterview returns all responses for an interview in question order.
func (r *Repository) ListByInterview(ctx context.Context, interviewID uuid.UUID) ([]models.InterviewResponse, error) {
	const query = `SELECT id, interview_id, user_id, question_index, question, answer,
			score, feedback, strengths, improvements, created_at
		FROM interview_responses WHERE interview_id = $1 ORDER BY question_index`
	rows, err := r.pool.Query(ctx, query, interviewID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.InterviewResponse
	for rows.Next() {
		var resp models.InterviewResponse
		if err := rows.Scan(&resp.ID, &resp.InterviewID, &resp.UserID, &resp.QuestionIndex,
			&resp.Question, &resp.Answer, &resp.Score, &resp.Feedback,
			&resp.Strengths, &resp.Improvements, &resp.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, resp)
	}
	return out, rows.Err()
}

// CountByInterview returns the number of responses for an interview.
func (r *Repository) CountByInterview(ctx context.Context, interviewID uuid.UUID) (int, error) {
	const query = `SELECT COUNT(*) FROM interview_responses WHERE interview_id = $1`
	var n int
	err := r.pool.QueryRow(ctx, query, interviewID).Scan(&n)
	return n, err
}

// CreateSummary inserts the terminal summary for an interview. One summary
// per interview; a repeat finish overwrites the earlier one.
func (r *Repository) CreateSummary(ctx context.Context, s *models.InterviewSummary) error {
	const query = `INSERT INTO interview_summaries
			(id, interview_id, user_id, total_questions, answered_count, average_score,
			 duration_minutes, assessment, strengths, improvements)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (interview_id) DO UPDATE SET
			answered_count = EXCLUDED.answered_count,
			average_score = EXCLUDED.average_score,
			duration_minutes = EXCLUDED.duration_minutes,
			assessment = EXCLUDED.assessment,
			strengths = EXCLUDED.strengths,
			improvements = EXCLUDED.improvements
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		s.InterviewID, s.UserID, s.TotalQuestions, s.AnsweredCount, s.AverageScore,
		s.DurationMinutes, s.Assessment, s.Strengths, s.Improvements).
		Scan(&s.ID, &s.CreatedAt)
}

// GetSummaryByInterview returns the summary for an interview, or pgx.ErrNoRows.
func (r *Repository) GetSummaryByInterview(ctx context.Context, interviewID uuid.UUID) (*models.InterviewSummary, error) {
	const query = `SELECT id, interview_id, user_id, total_questions, answered_count,
			average_score, duration_minutes, assessment, strengths, improvements, created_at
		FROM interview_summaries WHERE interview_id = $1`
	var s models.InterviewSummary
	err := r.pool.QueryRow(ctx, query, interviewID).
		Scan(&s.ID, &s.InterviewID, &s.UserID, &s.TotalQuestions, &s.AnsweredCount,
			&s.AverageScore, &s.DurationMinutes, &s.Assessment, &s.Strengths,
			&s.Improvements, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// AverageScore returns the mean score across an interview's responses.
func (r *Repository) AverageScore(ctx context.Context, interviewID uuid.UUID) (float64, error) {
	const query = `SELECT COALESCE(AVG(score), 0) FROM interview_responses WHERE interview_id = $1`
	var avg float64
	err := r.pool.QueryRow(ctx, query, interviewID).Scan(&avg)
	return avg, err
}
