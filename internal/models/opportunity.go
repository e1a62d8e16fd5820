package models

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// FlexibleString accepts a string or a SAM.gov {"code": ..., "name": ...}
// object, preferring the code.
type FlexibleString string

func (fs *FlexibleString) UnmarshalJSON(data []byte) error {
	*fs = FlexibleString(flexibleValue(data, "code", "name", "value", "text"))
	return nil
}

func (fs FlexibleString) String() string {
	return string(fs)
}

// FlexibleName is FlexibleString preferring the name, for cities whose code
// is a numeric place id.
type FlexibleName string

func (fn *FlexibleName) UnmarshalJSON(data []byte) error {
	*fn = FlexibleName(flexibleValue(data, "name", "value", "text", "code"))
	return nil
}

func (fn FlexibleName) String() string {
	return string(fn)
}

func flexibleValue(data []byte, fields ...string) string {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s
	}
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err == nil {
		for _, field := range fields {
			if val, ok := obj[field].(string); ok && val != "" {
				return val
			}
		}
	}
	return ""
}

// PlaceOfPerformance is the JSONB place_of_performance column of an ingested opportunity.
type PlaceOfPerformance struct {
	City    FlexibleName   `json:"city"`
	State   FlexibleString `json:"state"`
	Country FlexibleString `json:"country"`
}

// NAICSEntry is one element of the JSONB naics column.
type NAICSEntry struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// OpportunityRow is an ingested SAM.gov opportunity as stored in the opportunity table.
type OpportunityRow struct {
	NoticeID           string
	Title              string
	Description        string
	SolicitationNumber string
	Department         string
	AgencyPathName     string
	Type               string
	TypeOfSetAsideDesc string
	ResponseDeadline   string
	PostedDate         string
	ClassificationCode string
	Active             bool
	NAICS              []NAICSEntry
	Place              PlaceOfPerformance
	ContractValueMin   *decimal.Decimal
	ContractValueMax   *decimal.Decimal
}

// ToSolicitation flattens the stored opportunity into the shape the research pipeline reads.
func (o OpportunityRow) ToSolicitation() Solicitation {
	codes := make([]string, 0, len(o.NAICS))
	for _, n := range o.NAICS {
		if code := strings.TrimSpace(n.Code); code != "" {
			codes = append(codes, code)
		}
	}

	agency := o.AgencyPathName
	if agency == "" {
		agency = o.Department
	}

	city := strings.TrimSpace(o.Place.City.String())
	state := strings.TrimSpace(o.Place.State.String())
	var location string
	switch {
	case city != "" && state != "":
		location = city + ", " + state
	case state != "":
		location = state
	default:
		location = city
	}

	status := "inactive"
	if o.Active {
		status = "active"
	}

	return Solicitation{
		ID:                 o.NoticeID,
		Title:              o.Title,
		Description:        o.Description,
		Agency:             agency,
		SolicitationNumber: o.SolicitationNumber,
		NAICSCodes:         strings.Join(codes, ","),
		PSCCodes:           o.ClassificationCode,
		Location:           location,
		State:              state,
		City:               city,
		ContractType:       o.Type,
		ContractValueMin:   o.ContractValueMin,
		ContractValueMax:   o.ContractValueMax,
		SetAsideType:       o.TypeOfSetAsideDesc,
		PostedDate:         o.PostedDate,
		DeadlineDate:       o.ResponseDeadline,
		Status:             status,
	}
}

// IngestOutcome is what the store did with one ingested opportunity.
type IngestOutcome string

const (
	IngestNew     IngestOutcome = "new"
	IngestUpdated IngestOutcome = "updated"
	IngestSkipped IngestOutcome = "skipped"
)
