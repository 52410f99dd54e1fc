package archive

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/prepify/backend/internal/interviews"
	"github.com/prepify/backend/internal/middleware"
	"github.com/prepify/backend/pkg/response"
	"github.com/prepify/backend/pkg/storage"
)

// Handler serves transcript downloads via pre-signed URLs.
type Handler struct {
	interviewRepo *interviews.Repository
	s3            *storage.S3
}

// NewHandler creates an archive handler.
func NewHandler(interviewRepo *interviews.Repository, s3 *storage.S3) *Handler {
	return &Handler{interviewRepo: interviewRepo, s3: s3}
}

// GetTranscript handles GET /interviews/:id/transcript.
func (h *Handler) GetTranscript(c *gin.Context) {
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
	if itv.ArchiveKey == "" {
		response.NotFound(c, "transcript not archived yet")
		return
	}

	url, err := h.s3.GeneratePresignedDownloadURL(c.Request.Context(), itv.ArchiveKey, h.s3.PresignExpire())
	if err != nil {
		response.Internal(c, "failed to sign transcript url")
		return
	}
	response.OK(c, gin.H{"url": url})
}
