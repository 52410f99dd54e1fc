package interviews

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/prepify/backend/internal/models"
)

type fakeTranscriptStore struct {
	deleted []string
	err     error
}

func (f *fakeTranscriptStore) DeleteTranscript(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return f.err
}

func TestCleanupTranscriptRemovesArchivedObject(t *testing.T) {
	t.Parallel()

	store := &fakeTranscriptStore{}
	h := NewHandler(nil, nil, store, nil)
	itv := &models.Interview{ID: uuid.New(), ArchiveKey: "transcripts/u1/i1.json"}

	h.cleanupTranscript(context.Background(), itv)

	if len(store.deleted) != 1 || store.deleted[0] != "transcripts/u1/i1.json" {
		t.Fatalf("expected one delete for the archive key, got %v", store.deleted)
	}
}

func TestCleanupTranscriptSkipsUnarchivedInterviews(t *testing.T) {
	t.Parallel()

	store := &fakeTranscriptStore{}
	h := NewHandler(nil, nil, store, nil)

	h.cleanupTranscript(context.Background(), &models.Interview{ID: uuid.New()})
	if len(store.deleted) != 0 {
		t.Fatalf("unarchived interview triggered a delete: %v", store.deleted)
	}

	// No store configured: must be a no-op, not a panic.
	bare := NewHandler(nil, nil, nil, nil)
	bare.cleanupTranscript(context.Background(), &models.Interview{ID: uuid.New(), ArchiveKey: "k"})
}

func TestCleanupTranscriptToleratesStoreErrors(t *testing.T) {
	t.Parallel()

	store := &fakeTranscriptStore{err: errors.New("bucket unreachable")}
	h := NewHandler(nil, nil, store, nil)

	// An S3 failure is logged, never surfaced; this must not panic.
	h.cleanupTranscript(context.Background(), &models.Interview{ID: uuid.New(), ArchiveKey: "k"})
	if len(store.deleted) != 1 {
		t.Fatalf("expected delete attempt despite error, got %v", store.deleted)
	}
}
