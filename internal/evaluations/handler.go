package evaluations

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/prepify/backend/internal/history"
	"github.com/prepify/backend/internal/interviews"
	"github.com/prepify/backend/internal/middleware"
	"github.com/prepify/backend/internal/models"
	"github.com/prepify/backend/internal/realtime"
	"github.com/prepify/backend/pkg/queue"
	"github.com/prepify/backend/pkg/response"
)

// Handler hosts the evaluation and summary endpoints consumed by the session
// orchestrator, plus the feedback page data. The evaluate/finish responses
// use the scoring wire contract directly rather than the standard envelope:
// the orchestrator's HTTP client only knows that contract.
type Handler struct {
	interviewRepo *interviews.Repository
	repo          *Repository
	grader        *Grader
	hub           *realtime.Hub
	jobs          *queue.Queue
	historyRepo   *history.Repository
	logger        *zap.Logger
}

// NewHandler creates an evaluations handler.
func NewHandler(
	interviewRepo *interviews.Repository,
	repo *Repository,
	grader *Grader,
	hub *realtime.Hub,
	jobs *queue.Queue,
	historyRepo *history.Repository,
	logger *zap.Logger,
) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		interviewRepo: interviewRepo,
		repo:          repo,
		grader:        grader,
		hub:           hub,
		jobs:          jobs,
		historyRepo:   historyRepo,
		logger:        logger,
	}
}

type evaluateRequest struct {
	InterviewID   string `json:"interviewId"`
	QuestionIndex int    `json:"questionIndex"`
	Question      string `json:"question"`
	Answer        string `json:"answer"`
	UserID        string `json:"userId"`
}

type evaluationBody struct {
	Score        float64  `json:"score"`
	Feedback     string   `json:"feedback"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
}

type evaluateResponse struct {
	Success             bool            `json:"success"`
	Evaluation          *evaluationBody `json:"evaluation,omitempty"`
	InterviewerResponse string          `json:"interviewerResponse,omitempty"`
	IsLastQuestion      bool            `json:"isLastQuestion"`
	Error               string          `json:"error,omitempty"`
}

func evaluateFail(c *gin.Context, status int, msg string) {
	c.JSON(status, evaluateResponse{Success: false, Error: msg})
}

// EvaluateResponse handles POST /interviews/:id/evaluate-response.
func (h *Handler) EvaluateResponse(c *gin.Context) {
	var req evaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		evaluateFail(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Answer) == "" {
		evaluateFail(c, http.StatusBadRequest, "answer is empty")
		return
	}
	itv, ok := h.loadInterview(c, req.InterviewID, req.UserID, func(status int, msg string) {
		evaluateFail(c, status, msg)
	})
	if !ok {
		return
	}
	if req.QuestionIndex < 0 || req.QuestionIndex >= itv.QuestionCount() {
		evaluateFail(c, http.StatusBadRequest, "question index out of range")
		return
	}
	question := req.Question
	if question == "" {
		question = itv.Questions[req.QuestionIndex]
	}

	ctx := c.Request.Context()
	graded, err := h.grader.EvaluateAnswer(ctx, GradeInput{
		Role:           itv.Role,
		Level:          itv.Level,
		Question:       question,
		Answer:         req.Answer,
		QuestionIndex:  req.QuestionIndex,
		TotalQuestions: itv.QuestionCount(),
	})
	if err != nil {
		h.logger.Warn("grading failed", zap.String("interview_id", itv.ID.String()), zap.Error(err))
		evaluateFail(c, http.StatusBadGateway, "failed to evaluate response")
		return
	}

	resp := &models.InterviewResponse{
		InterviewID:   itv.ID,
		UserID:        itv.UserID,
		QuestionIndex: req.QuestionIndex,
		Question:      question,
		Answer:        req.Answer,
		Score:         graded.Evaluation.Score,
		Feedback:      graded.Evaluation.Feedback,
		Strengths:     graded.Evaluation.Strengths,
		Improvements:  graded.Evaluation.Improvements,
	}
	if err := h.repo.CreateResponse(ctx, resp); err != nil {
		h.logger.Error("store response failed", zap.String("interview_id", itv.ID.String()), zap.Error(err))
		evaluateFail(c, http.StatusInternalServerError, "failed to store response")
		return
	}

	h.hub.PublishToInterviewOnly(itv.ID, "evaluation", resp)

	c.JSON(http.StatusOK, evaluateResponse{
		Success: true,
		Evaluation: &evaluationBody{
			Score:        resp.Score,
			Feedback:     resp.Feedback,
			Strengths:    resp.Strengths,
			Improvements: resp.Improvements,
		},
		InterviewerResponse: graded.InterviewerResponse,
		IsLastQuestion:      itv.LastQuestionIndex(req.QuestionIndex),
	})
}

type finishRequest struct {
	InterviewID string `json:"interviewId"`
	UserID      string `json:"userId"`
	Duration    int    `json:"duration"`
}

type finishResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func finishFail(c *gin.Context, status int, msg string) {
	c.JSON(status, finishResponse{Success: false, Error: msg})
}

// FinishInterview handles POST /interviews/:id/finish.
func (h *Handler) FinishInterview(c *gin.Context) {
	var req finishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		finishFail(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	itv, ok := h.loadInterview(c, req.InterviewID, req.UserID, func(status int, msg string) {
		finishFail(c, status, msg)
	})
	if !ok {
		return
	}

	ctx := c.Request.Context()
	responses, err := h.repo.ListByInterview(ctx, itv.ID)
	if err != nil {
		finishFail(c, http.StatusInternalServerError, "failed to load responses")
		return
	}
	if len(responses) == 0 {
		finishFail(c, http.StatusBadRequest, "interview has no responses to summarize")
		return
	}

	summary, err := h.grader.Summarize(ctx, itv, responses)
	if err != nil {
		h.logger.Warn("summary generation failed", zap.String("interview_id", itv.ID.String()), zap.Error(err))
		finishFail(c, http.StatusBadGateway, "failed to generate summary")
		return
	}

	var totalScore float64
	for _, r := range responses {
		totalScore += r.Score
	}
	record := &models.InterviewSummary{
		InterviewID:     itv.ID,
		UserID:          itv.UserID,
		TotalQuestions:  itv.QuestionCount(),
		AnsweredCount:   len(responses),
		AverageScore:    totalScore / float64(len(responses)),
		DurationMinutes: req.Duration,
		Assessment:      summary.Assessment,
		Strengths:       summary.Strengths,
		Improvements:    summary.Improvements,
	}
	if err := h.repo.CreateSummary(ctx, record); err != nil {
		h.logger.Error("store summary failed", zap.String("interview_id", itv.ID.String()), zap.Error(err))
		finishFail(c, http.StatusInternalServerError, "failed to store summary")
		return
	}
	if err := h.interviewRepo.MarkFinalized(ctx, itv.ID); err != nil {
		finishFail(c, http.StatusInternalServerError, "failed to finalize interview")
		return
	}
	if err := h.historyRepo.LogFinish(ctx, itv.ID, itv.UserID, history.OutcomeCompleted); err != nil {
		h.logger.Warn("session log update failed", zap.String("interview_id", itv.ID.String()), zap.Error(err))
	}

	if h.jobs != nil {
		if err := h.jobs.EnqueueTranscriptArchive(ctx, queue.TranscriptArchivePayload{
			InterviewID: itv.ID,
			UserID:      itv.UserID,
		}); err != nil {
			// Archival is best-effort; the interview is already finalized.
			h.logger.Warn("enqueue transcript archive failed", zap.String("interview_id", itv.ID.String()), zap.Error(err))
		}
	}

	h.hub.PublishToInterviewOnly(itv.ID, "interview_finished", gin.H{
		"interview_id":  itv.ID,
		"average_score": record.AverageScore,
	})

	c.JSON(http.StatusOK, finishResponse{Success: true})
}

// Feedback handles GET /interviews/:id/feedback (JWT-protected page data).
func (h *Handler) Feedback(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid interview id")
		return
	}
	itv, err := h.interviewRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "interview not found")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if itv.UserID != userID {
		response.Forbidden(c, "not your interview")
		return
	}

	responses, err := h.repo.ListByInterview(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to load responses")
		return
	}
	summary, err := h.repo.GetSummaryByInterview(c.Request.Context(), id)
	if err != nil {
		// Feedback before finalization shows responses without a summary.
		summary = nil
	}
	response.OK(c, gin.H{
		"interview": itv,
		"responses": responses,
		"summary":   summary,
	})
}

// loadInterview resolves and validates the interview addressed by both the
// URL and the request body; fail is called with the wire-contract error shape.
func (h *Handler) loadInterview(c *gin.Context, bodyID, bodyUserID string, fail func(status int, msg string)) (*models.Interview, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(http.StatusBadRequest, "invalid interview id")
		return nil, false
	}
	if bodyID != "" && bodyID != id.String() {
		fail(http.StatusBadRequest, "interview id mismatch")
		return nil, false
	}
	itv, err := h.interviewRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		fail(http.StatusNotFound, "interview not found")
		return nil, false
	}
	if bodyUserID != "" && bodyUserID != itv.UserID.String() {
		fail(http.StatusForbidden, "user mismatch")
		return nil, false
	}
	return itv, true
}
