package interviews

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/prepify/backend/internal/middleware"
	"github.com/prepify/backend/internal/models"
	"github.com/prepify/backend/internal/templates"
	"github.com/prepify/backend/pkg/response"
)

// TranscriptStore removes archived transcripts when their interview goes away.
type TranscriptStore interface {
	DeleteTranscript(ctx context.Context, key string) error
}

// CreateRequest is the body for POST /interviews. Either a template name or
// an explicit question list; the template fills in role/level/type when used.
type CreateRequest struct {
	Template  string   `json:"template"`
	Role      string   `json:"role"`
	Level     string   `json:"level"`
	Type      string   `json:"type"`
	TechStack []string `json:"tech_stack"`
	Questions []string `json:"questions"`
}

// Handler handles interview HTTP endpoints.
type Handler struct {
	repo        *Repository
	banks       *templates.Store
	transcripts TranscriptStore // nil when S3 is not configured
	logger      *zap.Logger
}

// NewHandler creates an interviews handler.
func NewHandler(repo *Repository, banks *templates.Store, transcripts TranscriptStore, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, banks: banks, transcripts: transcripts, logger: logger}
}

// Create handles POST /interviews.
func (h *Handler) Create(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	itv := &models.Interview{
		UserID:    userID,
		Role:      req.Role,
		Level:     req.Level,
		Type:      req.Type,
		TechStack: req.TechStack,
		Questions: req.Questions,
	}
	if req.Template != "" {
		bank, ok := h.banks.Get(req.Template)
		if !ok {
			response.NotFound(c, "unknown template")
			return
		}
		itv.Questions = append([]string(nil), bank.Questions...)
		if itv.Role == "" {
			itv.Role = bank.Role
		}
		if itv.Level == "" {
			itv.Level = bank.Level
		}
		if itv.Type == "" {
			itv.Type = bank.Type
		}
		if len(itv.TechStack) == 0 {
			itv.TechStack = append([]string(nil), bank.TechStack...)
		}
	}
	if len(itv.Questions) == 0 {
		response.BadRequest(c, "interview needs a template or at least one question")
		return
	}

	if err := h.repo.Create(c.Request.Context(), itv); err != nil {
		response.Internal(c, "failed to create interview")
		return
	}
	response.Created(c, itv)
}

// List handles GET /interviews (the caller's interviews).
func (h *Handler) List(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.repo.ListByUser(c.Request.Context(), userID)
	if err != nil {
		response.Internal(c, "failed to list interviews")
		return
	}
	response.OK(c, gin.H{"interviews": list})
}

// Get handles GET /interviews/:id.
func (h *Handler) Get(c *gin.Context) {
	itv, ok := h.ownedInterview(c)
	if !ok {
		return
	}
	response.OK(c, itv)
}

// Delete handles DELETE /interviews/:id.
func (h *Handler) Delete(c *gin.Context) {
	itv, ok := h.ownedInterview(c)
	if !ok {
		return
	}
	if err := h.repo.Delete(c.Request.Context(), itv.ID); err != nil {
		response.Internal(c, "failed to delete interview")
		return
	}
	h.cleanupTranscript(c.Request.Context(), itv)
	response.NoContent(c)
}

// ListTemplates handles GET /templates.
func (h *Handler) ListTemplates(c *gin.Context) {
	response.OK(c, gin.H{"templates": h.banks.List()})
}

// cleanupTranscript removes the archived transcript object, if any, after
// its interview was deleted. Best-effort: the DB row is gone either way.
func (h *Handler) cleanupTranscript(ctx context.Context, itv *models.Interview) {
	if itv.ArchiveKey == "" || h.transcripts == nil {
		return
	}
	if err := h.transcripts.DeleteTranscript(ctx, itv.ArchiveKey); err != nil {
		h.logger.Warn("archived transcript not removed",
			zap.String("interview_id", itv.ID.String()),
			zap.String("s3_key", itv.ArchiveKey),
			zap.Error(err))
	}
}

// ownedInterview loads the :id interview and enforces ownership.
func (h *Handler) ownedInterview(c *gin.Context) (*models.Interview, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid interview id")
		return nil, false
	}
	itv, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "interview not found")
		return nil, false
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if itv.UserID != userID {
		response.Forbidden(c, "not your interview")
		return nil, false
	}
	return itv, true
}
