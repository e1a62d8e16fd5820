// Package ingestion loads SAM.gov opportunity notices into the solicitation store.
package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"govcon/research/internal/models"
)

// FlexibleBool accepts SAM.gov booleans sent as "Yes", "true", 1 or true.
type FlexibleBool bool

func (fb *FlexibleBool) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		s = strings.ToLower(strings.TrimSpace(s))
		*fb = FlexibleBool(s == "true" || s == "1" || s == "yes")
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*fb = FlexibleBool(b)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*fb = FlexibleBool(n != 0)
		return nil
	}
	*fb = false
	return nil
}

// Notice is one opportunity as returned by the SAM.gov search API.
type Notice struct {
	NoticeID           string              `json:"noticeId"`
	Title              string              `json:"title"`
	SolicitationNumber string              `json:"solicitationNumber"`
	FullParentPathName string              `json:"fullParentPathName"`
	Department         string              `json:"department"`
	PostedDate         string              `json:"postedDate"`
	Type               string              `json:"type"`
	TypeOfSetAsideDesc string              `json:"typeOfSetAsideDescription"`
	ResponseDeadline   string              `json:"responseDeadLine"`
	NAICSCode          string              `json:"naicsCode"`
	NAICS              []models.NAICSEntry `json:"naics"`
	ClassificationCode string              `json:"classificationCode"`
	Active             FlexibleBool        `json:"active"`
	Award              *struct {
		Amount json.Number `json:"amount"`
	} `json:"award"`
	PlaceOfPerformance models.PlaceOfPerformance `json:"placeOfPerformance"`
	Description        string                    `json:"description"`
}

// Page is one page of search results.
type Page struct {
	TotalRecords      int      `json:"totalRecords"`
	OpportunitiesData []Notice `json:"opportunitiesData"`
}

// Row converts the notice into the stored opportunity shape.
func (n Notice) Row() (models.OpportunityRow, error) {
	if strings.TrimSpace(n.NoticeID) == "" {
		return models.OpportunityRow{}, fmt.Errorf("notice has no noticeId")
	}
	if strings.TrimSpace(n.Title) == "" {
		return models.OpportunityRow{}, fmt.Errorf("notice %s has no title", n.NoticeID)
	}

	naics := n.NAICS
	if len(naics) == 0 {
		for _, code := range models.SplitCodes(n.NAICSCode) {
			naics = append(naics, models.NAICSEntry{Code: code})
		}
	}

	row := models.OpportunityRow{
		NoticeID:           n.NoticeID,
		Title:              n.Title,
		Description:        n.Description,
		SolicitationNumber: n.SolicitationNumber,
		Department:         n.Department,
		AgencyPathName:     n.FullParentPathName,
		Type:               n.Type,
		TypeOfSetAsideDesc: n.TypeOfSetAsideDesc,
		ResponseDeadline:   n.ResponseDeadline,
		PostedDate:         n.PostedDate,
		ClassificationCode: n.ClassificationCode,
		Active:             bool(n.Active),
		NAICS:              naics,
		Place:              n.PlaceOfPerformance,
	}
	if n.Award != nil && n.Award.Amount != "" {
		amount, err := decimal.NewFromString(n.Award.Amount.String())
		if err != nil {
			return models.OpportunityRow{}, fmt.Errorf("notice %s has invalid award amount %q: %w", n.NoticeID, n.Award.Amount, err)
		}
		row.ContractValueMax = &amount
	}
	return row, nil
}

// ContentHash fingerprints the stored fields of a row, so unchanged notices
// can be skipped on re-ingestion.
func ContentHash(row models.OpportunityRow) (string, error) {
	data, err := json.Marshal(row)
	if err != nil {
		return "", fmt.Errorf("failed to marshal hash data: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
