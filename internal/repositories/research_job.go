package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"govcon/research/internal/models"
)

// ResearchJobRepository persists research job records. At most one pending
// or running job exists per solicitation.
type ResearchJobRepository struct {
	db *pgxpool.Pool
}

func NewResearchJobRepository(db *pgxpool.Pool) *ResearchJobRepository {
	return &ResearchJobRepository{db: db}
}

const researchJobColumns = `id, solicitation_id, user_id, status, error, result, created_at, started_at, finished_at`

func scanResearchJob(row rowScanner) (models.ResearchJob, error) {
	var job models.ResearchJob
	var result []byte
	err := row.Scan(
		&job.ID, &job.SolicitationID, &job.UserID, &job.Status, &job.Error,
		&result, &job.CreatedAt, &job.StartedAt, &job.FinishedAt,
	)
	if err != nil {
		return job, err
	}
	if len(result) > 0 {
		var r models.ResearchResult
		if err := json.Unmarshal(result, &r); err != nil {
			return job, fmt.Errorf("failed to decode research result for job %s: %w", job.ID, err)
		}
		job.Result = &r
	}
	return job, nil
}

// Start inserts job as pending unless the solicitation already has an active
// job, in which case that job is returned and created is false.
func (r *ResearchJobRepository) Start(ctx context.Context, job models.ResearchJob) (stored models.ResearchJob, created bool, err error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return stored, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	tag, err := tx.Exec(ctx, `
		INSERT INTO research_job (id, solicitation_id, user_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (solicitation_id) WHERE status IN ('pending', 'running') DO NOTHING
	`, job.ID, job.SolicitationID, job.UserID, models.JobPending, job.CreatedAt)
	if err != nil {
		return stored, false, fmt.Errorf("failed to insert research job: %w", err)
	}

	stored, err = scanResearchJob(tx.QueryRow(ctx, `
		SELECT `+researchJobColumns+`
		FROM research_job
		WHERE solicitation_id = $1 AND status IN ('pending', 'running')
	`, job.SolicitationID))
	if err != nil {
		return stored, false, fmt.Errorf("failed to read active research job: %w", err)
	}
	return stored, tag.RowsAffected() == 1, nil
}

// Latest returns the most recently created job for the solicitation, or ErrNotFound.
func (r *ResearchJobRepository) Latest(ctx context.Context, solicitationID string) (models.ResearchJob, error) {
	job, err := scanResearchJob(r.db.QueryRow(ctx, `
		SELECT `+researchJobColumns+`
		FROM research_job
		WHERE solicitation_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, solicitationID))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ResearchJob{}, ErrNotFound
	}
	if err != nil {
		return models.ResearchJob{}, fmt.Errorf("failed to get research job: %w", err)
	}
	return job, nil
}

func (r *ResearchJobRepository) MarkRunning(ctx context.Context, id string, at time.Time) error {
	return r.transition(ctx, `
		UPDATE research_job SET status = 'running', started_at = $2
		WHERE id = $1 AND status = 'pending'
	`, id, at)
}

func (r *ResearchJobRepository) Complete(ctx context.Context, id string, result models.ResearchResult, at time.Time) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal research result: %w", err)
	}
	return r.transition(ctx, `
		UPDATE research_job SET status = 'completed', result = $2, finished_at = $3
		WHERE id = $1 AND status IN ('pending', 'running')
	`, id, data, at)
}

func (r *ResearchJobRepository) Fail(ctx context.Context, id, reason string, at time.Time) error {
	return r.transition(ctx, `
		UPDATE research_job SET status = 'failed', error = $2, finished_at = $3
		WHERE id = $1 AND status IN ('pending', 'running')
	`, id, reason, at)
}

// FailStale fails every active job created before cutoff and returns how many it touched.
func (r *ResearchJobRepository) FailStale(ctx context.Context, cutoff time.Time, reason string) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE research_job SET status = 'failed', error = $2, finished_at = now()
		WHERE status IN ('pending', 'running') AND created_at < $1
	`, cutoff, reason)
	if err != nil {
		return 0, fmt.Errorf("failed to fail stale research jobs: %w", err)
	}
	return tag.RowsAffected(), nil
}

// transition runs a guarded status update; it is ErrNotFound when the job
// does not exist or is no longer in a state the update applies to.
func (r *ResearchJobRepository) transition(ctx context.Context, query string, args ...any) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update research job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
