package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"govcon/research/internal/models"
)

// ingestionLockKey is the advisory lock held while an ingestion run writes.
const ingestionLockKey = 1

// ErrIngestionLocked means another ingestion run holds the lock.
var ErrIngestionLocked = errors.New("another ingestion job is already running")

// WithIngestionLock runs fn while holding the ingestion advisory lock. It
// returns ErrIngestionLocked without running fn when the lock is taken.
func (r *SolicitationRepository) WithIngestionLock(ctx context.Context, fn func(context.Context) error) error {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	var acquired bool
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock($1)`, ingestionLockKey).Scan(&acquired); err != nil {
		return fmt.Errorf("failed to check advisory lock: %w", err)
	}
	if !acquired {
		return ErrIngestionLocked
	}
	defer func() {
		_, _ = conn.Exec(context.WithoutCancel(ctx), `SELECT pg_advisory_unlock($1)`, ingestionLockKey)
	}()
	return fn(ctx)
}

// UpsertOpportunity inserts a new opportunity, updates one whose content
// hash changed, and skips an unchanged one.
func (r *SolicitationRepository) UpsertOpportunity(ctx context.Context, row models.OpportunityRow, hash string) (outcome models.IngestOutcome, err error) {
	naicsJSON, err := json.Marshal(row.NAICS)
	if err != nil {
		return "", fmt.Errorf("failed to marshal naics: %w", err)
	}
	placeJSON, err := json.Marshal(row.Place)
	if err != nil {
		return "", fmt.Errorf("failed to marshal place of performance: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	var existingHash string
	err = tx.QueryRow(ctx, `SELECT content_hash FROM opportunity WHERE notice_id = $1 FOR UPDATE`, row.NoticeID).Scan(&existingHash)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		outcome = models.IngestNew
	case err != nil:
		return "", fmt.Errorf("failed to read content hash: %w", err)
	case existingHash == hash:
		return models.IngestSkipped, nil
	default:
		outcome = models.IngestUpdated
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO opportunity (
			notice_id, title, description, solicitation_number, department, agency_path_name,
			type, type_of_set_aside_desc, response_deadline, posted_date, classification_code,
			active, naics, place_of_performance, contract_value_min, contract_value_max,
			content_hash, first_seen, last_updated
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15::text::numeric, $16::text::numeric, $17, now(), now()
		)
		ON CONFLICT (notice_id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			solicitation_number = EXCLUDED.solicitation_number,
			department = EXCLUDED.department,
			agency_path_name = EXCLUDED.agency_path_name,
			type = EXCLUDED.type,
			type_of_set_aside_desc = EXCLUDED.type_of_set_aside_desc,
			response_deadline = EXCLUDED.response_deadline,
			posted_date = EXCLUDED.posted_date,
			classification_code = EXCLUDED.classification_code,
			active = EXCLUDED.active,
			naics = EXCLUDED.naics,
			place_of_performance = EXCLUDED.place_of_performance,
			contract_value_min = EXCLUDED.contract_value_min,
			contract_value_max = EXCLUDED.contract_value_max,
			content_hash = EXCLUDED.content_hash,
			last_updated = now()
	`,
		row.NoticeID, row.Title, row.Description, row.SolicitationNumber, row.Department, row.AgencyPathName,
		row.Type, row.TypeOfSetAsideDesc, row.ResponseDeadline, row.PostedDate, row.ClassificationCode,
		row.Active, naicsJSON, placeJSON, amountText(row.ContractValueMin), amountText(row.ContractValueMax),
		hash,
	)
	if err != nil {
		return "", fmt.Errorf("failed to upsert opportunity %s: %w", row.NoticeID, err)
	}
	return outcome, nil
}

// amountText passes a decimal to a NUMERIC column as text.
func amountText(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}
