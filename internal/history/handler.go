package history

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/prepify/backend/internal/middleware"
	"github.com/prepify/backend/pkg/response"
)

// Handler handles GET /history.
type Handler struct {
	repo *Repository
}

// NewHandler creates a history handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// List handles GET /history (the caller's recent sessions).
func (h *Handler) List(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	list, err := h.repo.ListByUser(c.Request.Context(), userID, limit)
	if err != nil {
		response.Internal(c, "failed to list sessions")
		return
	}
	response.OK(c, gin.H{"sessions": list})
}
