// Package archive exports finished interview transcripts to S3. Jobs are
// produced by the finish endpoint and consumed by the worker binary.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/prepify/backend/internal/evaluations"
	"github.com/prepify/backend/internal/interviews"
	"github.com/prepify/backend/internal/models"
	"github.com/prepify/backend/pkg/queue"
	"github.com/prepify/backend/pkg/storage"
)

// TranscriptDocument is the JSON shape written to S3: the whole interview
// record in one self-contained object.
type TranscriptDocument struct {
	Interview  *models.Interview          `json:"interview"`
	Responses  []models.InterviewResponse `json:"responses"`
	Summary    *models.InterviewSummary   `json:"summary,omitempty"`
	ExportedAt time.Time                  `json:"exported_at"`
}

// Processor processes transcript archive jobs: load responses and summary,
// render the JSON document, upload to S3, record the key.
type Processor struct {
	interviewRepo *interviews.Repository
	evalRepo      *evaluations.Repository
	s3            *storage.S3
	queue         *queue.Queue
	logger        *zap.Logger
}

// NewProcessor creates a transcript archive processor.
func NewProcessor(
	interviewRepo *interviews.Repository,
	evalRepo *evaluations.Repository,
	s3 *storage.S3,
	q *queue.Queue,
	logger *zap.Logger,
) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		interviewRepo: interviewRepo,
		evalRepo:      evalRepo,
		s3:            s3,
		queue:         q,
		logger:        logger,
	}
}

// Process executes one transcript archive job.
func (p *Processor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeTranscriptArchive {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.TranscriptArchivePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	itv, err := p.interviewRepo.GetByID(ctx, payload.InterviewID)
	if err != nil {
		return fmt.Errorf("interview not found: %s", payload.InterviewID)
	}
	if itv.ArchiveKey != "" {
		p.logger.Info("transcript already archived", zap.String("interview_id", itv.ID.String()), zap.String("s3_key", itv.ArchiveKey))
		return nil
	}

	responses, err := p.evalRepo.ListByInterview(ctx, itv.ID)
	if err != nil {
		return fmt.Errorf("load responses: %w", err)
	}
	summary, err := p.evalRepo.GetSummaryByInterview(ctx, itv.ID)
	if err != nil {
		// An abandoned interview can be archived without a summary.
		summary = nil
	}

	doc := TranscriptDocument{
		Interview:  itv,
		Responses:  responses,
		Summary:    summary,
		ExportedAt: time.Now().UTC(),
	}
	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}

	key := storage.TranscriptKey(payload.UserID.String(), itv.ID.String())
	if err := p.s3.UploadTranscript(ctx, key, body); err != nil {
		return fmt.Errorf("s3 upload: %w", err)
	}

	if err := p.interviewRepo.SetArchiveKey(ctx, itv.ID, key); err != nil {
		p.logger.Error("record archive key failed", zap.Error(err), zap.String("interview_id", itv.ID.String()))
		return fmt.Errorf("update db: %w", err)
	}

	p.logger.Info("transcript archived", zap.String("interview_id", itv.ID.String()), zap.String("s3_key", key))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *Processor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("archive worker stopping")
			return
		default:
		}

		job, _, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}
