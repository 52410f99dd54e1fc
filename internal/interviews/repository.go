package interviews

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prepify/backend/internal/models"
)

// Repository handles interview persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an interviews repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new interview with its frozen question list.
func (r *Repository) Create(ctx context.Context, itv *models.Interview) error {
	const query = `INSERT INTO interviews (id, user_id, role, level, type, tech_stack, questions)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		itv.UserID, itv.Role, itv.Level, itv.Type, itv.TechStack, itv.Questions).
		Scan(&itv.ID, &itv.CreatedAt)
}

// GetByID returns an interview by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Interview, error) {
	const query = `SELECT id, user_id, role, level, type, tech_stack, questions,
			finalized, COALESCE(archive_key, ''), created_at
		FROM interviews WHERE id = $1`
	var itv models.Interview
	err := r.pool.QueryRow(ctx, query, id).
		Scan(&itv.ID, &itv.UserID, &itv.Role, &itv.Level, &itv.Type, &itv.TechStack,
			&itv.Questions, &itv.Finalized, &itv.ArchiveKey, &itv.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &itv, nil
}

// ListByUser returns a user's interviews, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Interview, error) {
	const query = `SELECT id, user_id, role, level, type, tech_stack, questions,
			finalized, COALESCE(archive_key, ''), created_at
		FROM interviews WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Interview
	for rows.Next() {
		var itv models.Interview
		if err := rows.Scan(&itv.ID, &itv.UserID, &itv.Role, &itv.Level, &itv.Type,
			&itv.TechStack, &itv.Questions, &itv.Finalized, &itv.ArchiveKey, &itv.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, itv)
	}
	return out, rows.Err()
}

// MarkFinalized flags an interview as finished.
func (r *Repository) MarkFinalized(ctx context.Context, id uuid.UUID) error {
	const query = `UPDATE interviews SET finalized = TRUE WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

// SetArchiveKey records the S3 key of the exported transcript.
func (r *Repository) SetArchiveKey(ctx context.Context, id uuid.UUID, key string) error {
	const query = `UPDATE interviews SET archive_key = $2 WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, key)
	return err
}

// Delete removes an interview and, through ON DELETE CASCADE, its responses
// and summary.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM interviews WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

// CountByUser returns the number of interviews a user has created.
func (r *Repository) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	const query = `SELECT COUNT(*) FROM interviews WHERE user_id = $1`
	var n int
	err := r.pool.QueryRow(ctx, query, userID).Scan(&n)
	return n, err
}
