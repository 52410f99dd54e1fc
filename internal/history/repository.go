package history

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prepify/backend/internal/models"
)

// Outcome values recorded when a session ends.
const (
	OutcomeCompleted = "completed"
	OutcomeAbandoned = "abandoned"
)

// Repository handles the session activity log.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a history repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// LogStart inserts a row when a session begins against an interview.
func (r *Repository) LogStart(ctx context.Context, interviewID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO session_events (id, interview_id, user_id, started_at)
		 VALUES (gen_random_uuid(), $1, $2, NOW())`,
		interviewID, userID)
	return err
}

// LogFinish closes the most recent open session for this user and interview.
func (r *Repository) LogFinish(ctx context.Context, interviewID, userID uuid.UUID, outcome string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE session_events s SET finished_at = NOW(), outcome = $3
		 FROM (SELECT id FROM session_events
		       WHERE interview_id = $1 AND user_id = $2 AND finished_at IS NULL
		       ORDER BY started_at DESC LIMIT 1) AS open
		 WHERE s.id = open.id`,
		interviewID, userID, outcome)
	return err
}

// ListByUser returns a user's recent sessions, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.SessionEvent, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, interview_id, user_id, started_at, finished_at, COALESCE(outcome, '')
		 FROM session_events WHERE user_id = $1 ORDER BY started_at DESC LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.SessionEvent
	for rows.Next() {
		var ev models.SessionEvent
		if err := rows.Scan(&ev.ID, &ev.InterviewID, &ev.UserID, &ev.StartedAt, &ev.FinishedAt, &ev.Outcome); err != nil {
			return nil, err
		}
		list = append(list, ev)
	}
	return list, rows.Err()
}

// PracticeAggregates holds totals over a user's closed sessions.
type PracticeAggregates struct {
	TotalSessions   int
	CompletedCount  int
	PracticeSeconds int64
}

// GetPracticeAggregates returns session totals for the dashboard.
func (r *Repository) GetPracticeAggregates(ctx context.Context, userID uuid.UUID) (*PracticeAggregates, error) {
	const q = `SELECT COUNT(*),
			COUNT(*) FILTER (WHERE outcome = 'completed'),
			COALESCE(SUM(EXTRACT(EPOCH FROM (finished_at - started_at))::BIGINT), 0)
		FROM session_events WHERE user_id = $1 AND finished_at IS NOT NULL`
	var agg PracticeAggregates
	err := r.pool.QueryRow(ctx, q, userID).Scan(&agg.TotalSessions, &agg.CompletedCount, &agg.PracticeSeconds)
	if err != nil {
		return nil, err
	}
	return &agg, nil
}
