package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"govcon/research/internal/models"
)

type ProfileRepository struct {
	db *pgxpool.Pool
}

func NewProfileRepository(db *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetByUserID returns the user's business profile, or ErrNotFound.
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID string) (models.Profile, error) {
	var p models.Profile
	err := r.db.QueryRow(ctx, `
		SELECT user_id, name, email, company_name, naics_codes, psc_codes,
			location, state, city, business_type, completion_percentage
		FROM business_profile
		WHERE user_id = $1
	`, userID).Scan(
		&p.UserID, &p.Name, &p.Email, &p.CompanyName, &p.NAICSCodes, &p.PSCCodes,
		&p.Location, &p.State, &p.City, &p.BusinessType, &p.CompletionPercentage,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Profile{}, ErrNotFound
	}
	if err != nil {
		return models.Profile{}, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}
