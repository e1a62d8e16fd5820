package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"govcon/research/internal/models"
)

// opportunityColumns selects an ingested opportunity in the order scanOpportunity expects.
const opportunityColumns = `
	o.notice_id, o.title, COALESCE(o.description, ''), COALESCE(o.solicitation_number, ''),
	COALESCE(o.department, ''), COALESCE(o.agency_path_name, ''), COALESCE(o.type, ''),
	COALESCE(o.type_of_set_aside_desc, ''), COALESCE(o.response_deadline, ''),
	COALESCE(o.posted_date, ''), COALESCE(o.classification_code, ''), o.active,
	o.naics, o.place_of_performance, o.contract_value_min::text, o.contract_value_max::text`

type rowScanner interface {
	Scan(dest ...any) error
}

// scanOpportunity scans opportunityColumns followed by any extra destinations.
func scanOpportunity(row rowScanner, extra ...any) (models.OpportunityRow, error) {
	var opp models.OpportunityRow
	var naicsJSON, placeJSON []byte
	var valueMin, valueMax *string

	dest := []any{
		&opp.NoticeID, &opp.Title, &opp.Description, &opp.SolicitationNumber,
		&opp.Department, &opp.AgencyPathName, &opp.Type,
		&opp.TypeOfSetAsideDesc, &opp.ResponseDeadline,
		&opp.PostedDate, &opp.ClassificationCode, &opp.Active,
		&naicsJSON, &placeJSON, &valueMin, &valueMax,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return opp, err
	}

	if len(naicsJSON) > 0 {
		if err := json.Unmarshal(naicsJSON, &opp.NAICS); err != nil {
			return opp, fmt.Errorf("failed to decode naics for %s: %w", opp.NoticeID, err)
		}
	}
	if len(placeJSON) > 0 {
		if err := json.Unmarshal(placeJSON, &opp.Place); err != nil {
			return opp, fmt.Errorf("failed to decode place of performance for %s: %w", opp.NoticeID, err)
		}
	}
	var err error
	if opp.ContractValueMin, err = parseAmount(valueMin); err != nil {
		return opp, err
	}
	if opp.ContractValueMax, err = parseAmount(valueMax); err != nil {
		return opp, err
	}
	return opp, nil
}

func parseAmount(text *string) (*decimal.Decimal, error) {
	if text == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse contract value %q: %w", *text, err)
	}
	return &d, nil
}

// SolicitationRepository reads solicitations from the ingested opportunity table.
type SolicitationRepository struct {
	db *pgxpool.Pool
}

func NewSolicitationRepository(db *pgxpool.Pool) *SolicitationRepository {
	return &SolicitationRepository{db: db}
}

// GetByID returns the solicitation with the given notice id, or ErrNotFound.
func (r *SolicitationRepository) GetByID(ctx context.Context, id string) (models.Solicitation, error) {
	row := r.db.QueryRow(ctx, `SELECT `+opportunityColumns+` FROM opportunity o WHERE o.notice_id = $1`, id)
	opp, err := scanOpportunity(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Solicitation{}, ErrNotFound
	}
	if err != nil {
		return models.Solicitation{}, fmt.Errorf("failed to get solicitation: %w", err)
	}
	return opp.ToSolicitation(), nil
}
