package stats

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prepify/backend/internal/history"
	"github.com/prepify/backend/internal/interviews"
	"github.com/prepify/backend/internal/middleware"
	"github.com/prepify/backend/pkg/response"
)

// Handler handles GET /stats (the caller's dashboard aggregates).
type Handler struct {
	pool          *pgxpool.Pool
	interviewRepo *interviews.Repository
	historyRepo   *history.Repository
}

// NewHandler creates a stats handler.
func NewHandler(pool *pgxpool.Pool, interviewRepo *interviews.Repository, historyRepo *history.Repository) *Handler {
	return &Handler{
		pool:          pool,
		interviewRepo: interviewRepo,
		historyRepo:   historyRepo,
	}
}

// SummaryResponse is the JSON shape for the dashboard.
type SummaryResponse struct {
	TotalInterviews    int     `json:"total_interviews"`
	TotalSessions      int     `json:"total_sessions"`
	CompletedSessions  int     `json:"completed_sessions"`
	PracticeMinutes    int64   `json:"practice_minutes"`
	AnsweredQuestions  int     `json:"answered_questions"`
	AverageScore       float64 `json:"average_score"`
}

// Get handles GET /stats.
func (h *Handler) Get(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	ctx := c.Request.Context()

	total, err := h.interviewRepo.CountByUser(ctx, userID)
	if err != nil {
		response.Internal(c, "failed to load interview count")
		return
	}

	agg, err := h.historyRepo.GetPracticeAggregates(ctx, userID)
	if err != nil {
		response.Internal(c, "failed to load session aggregates")
		return
	}

	var answered int
	var avgScore float64
	const q = `SELECT COUNT(*), COALESCE(AVG(score), 0) FROM interview_responses WHERE user_id = $1`
	if err := h.pool.QueryRow(ctx, q, userID).Scan(&answered, &avgScore); err != nil {
		response.Internal(c, "failed to load response aggregates")
		return
	}

	response.OK(c, SummaryResponse{
		TotalInterviews:   total,
		TotalSessions:     agg.TotalSessions,
		CompletedSessions: agg.CompletedCount,
		PracticeMinutes:   agg.PracticeSeconds / 60,
		AnsweredQuestions: answered,
		AverageScore:      avgScore,
	})
}
