package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"govcon/research/internal/models"
)

// MatchScoreRepository caches match breakdowns keyed by (user_id, solicitation_id).
type MatchScoreRepository struct {
	db *pgxpool.Pool
}

func NewMatchScoreRepository(db *pgxpool.Pool) *MatchScoreRepository {
	return &MatchScoreRepository{db: db}
}

const matchScoreColumns = `ms.user_id, ms.solicitation_id, ms.overall_score, ms.breakdown, ms.calculated_at`

func scanMatchScore(row rowScanner, extra ...any) (models.MatchScore, error) {
	var s models.MatchScore
	var breakdown []byte
	dest := []any{&s.UserID, &s.SolicitationID, &s.OverallScore, &breakdown, &s.CalculatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return s, err
	}
	if err := json.Unmarshal(breakdown, &s.Breakdown); err != nil {
		return s, fmt.Errorf("failed to decode breakdown for %s: %w", s.SolicitationID, err)
	}
	return s, nil
}

func (r *MatchScoreRepository) Get(ctx context.Context, userID, solicitationID string) (models.MatchScore, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+matchScoreColumns+`
		FROM match_score ms
		WHERE ms.user_id = $1 AND ms.solicitation_id = $2
	`, userID, solicitationID)
	s, err := scanMatchScore(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.MatchScore{}, ErrNotFound
	}
	if err != nil {
		return models.MatchScore{}, fmt.Errorf("failed to get match score: %w", err)
	}
	return s, nil
}

// GetMany returns the cached scores among solicitationIDs, keyed by solicitation id.
func (r *MatchScoreRepository) GetMany(ctx context.Context, userID string, solicitationIDs []string) (map[string]models.MatchScore, error) {
	out := make(map[string]models.MatchScore, len(solicitationIDs))
	if len(solicitationIDs) == 0 {
		return out, nil
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+matchScoreColumns+`
		FROM match_score ms
		WHERE ms.user_id = $1 AND ms.solicitation_id = ANY($2)
	`, userID, solicitationIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query match scores: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		s, err := scanMatchScore(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match score: %w", err)
		}
		out[s.SolicitationID] = s
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating match scores: %w", err)
	}
	return out, nil
}

// Upsert stores the score, replacing any previous one for the same pair.
func (r *MatchScoreRepository) Upsert(ctx context.Context, s models.MatchScore) error {
	breakdown, err := json.Marshal(s.Breakdown)
	if err != nil {
		return fmt.Errorf("failed to marshal breakdown: %w", err)
	}
	f := s.Breakdown.Factors
	_, err = r.db.Exec(ctx, `
		INSERT INTO match_score (
			user_id, solicitation_id, overall_score,
			naics_score, location_score, capability_score, size_score, completeness_score,
			breakdown, calculated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id, solicitation_id) DO UPDATE SET
			overall_score = EXCLUDED.overall_score,
			naics_score = EXCLUDED.naics_score,
			location_score = EXCLUDED.location_score,
			capability_score = EXCLUDED.capability_score,
			size_score = EXCLUDED.size_score,
			completeness_score = EXCLUDED.completeness_score,
			breakdown = EXCLUDED.breakdown,
			calculated_at = EXCLUDED.calculated_at
	`,
		s.UserID, s.SolicitationID, s.OverallScore,
		f.NAICS.Score, f.Location.Score, f.Capability.Score, f.Size.Score, f.Completeness.Score,
		breakdown, s.CalculatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert match score: %w", err)
	}
	return nil
}

// List returns the user's scores at or above minScore, best first, with the
// summary of each scored solicitation at the same index.
func (r *MatchScoreRepository) List(ctx context.Context, userID string, minScore, limit int) ([]models.MatchScore, []models.SolicitationSummary, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+opportunityColumns+`, `+matchScoreColumns+`
		FROM match_score ms
		JOIN opportunity o ON o.notice_id = ms.solicitation_id
		WHERE ms.user_id = $1 AND ms.overall_score >= $2
		ORDER BY ms.overall_score DESC, ms.calculated_at DESC
		LIMIT $3
	`, userID, minScore, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list match scores: %w", err)
	}
	defer rows.Close()

	var scores []models.MatchScore
	var summaries []models.SolicitationSummary
	for rows.Next() {
		var s models.MatchScore
		var breakdown []byte
		opp, err := scanOpportunity(rows, &s.UserID, &s.SolicitationID, &s.OverallScore, &breakdown, &s.CalculatedAt)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan match score: %w", err)
		}
		if err := json.Unmarshal(breakdown, &s.Breakdown); err != nil {
			return nil, nil, fmt.Errorf("failed to decode breakdown for %s: %w", s.SolicitationID, err)
		}
		scores = append(scores, s)
		summaries = append(summaries, opp.ToSolicitation().Summary())
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating match scores: %w", err)
	}
	return scores, summaries, nil
}
