// Package quoting turns ranked research matches into a draft price quote.
package quoting

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"govcon/research/internal/models"
	"govcon/research/internal/services/scoring"
)

const (
	currency     = "USD"
	validFor     = 30 * 24 * time.Hour
	quoteNotes   = "This quote was generated automatically based on RFQ requirements. All prices are estimates and subject to final vendor confirmation."
	quoteTerms   = "Net 30 days. All items subject to availability. Prices valid for 30 days from quote date."
	customNotes  = "Requires custom pricing - contact for quote"
	customPrefix = "Custom solution required for: "
)

var (
	TaxRate               = decimal.RequireFromString("0.08")
	FlatShipping          = decimal.NewFromInt(250)
	FreeShippingThreshold = decimal.NewFromInt(5000)
)

// Synthesizer builds quotes. Clock and id generator are injectable.
type Synthesizer struct {
	now   func() time.Time
	newID func() string
}

func NewSynthesizer(now func() time.Time, newID func() string) *Synthesizer {
	if now == nil {
		now = time.Now
	}
	if newID == nil {
		newID = func() string { return "quote-" + uuid.NewString() }
	}
	return &Synthesizer{now: now, newID: newID}
}

// Quote emits one line item per requirement: the highest-ranked match, or a
// zero-priced placeholder when no match survived selection. ranked must be
// the output of scoring.Select.
func (s *Synthesizer) Quote(solicitationID string, reqs []models.Requirement, ranked []models.Candidate) models.Quote {
	best := scoring.BestByRequirement(ranked)

	items := make([]models.LineItem, 0, len(reqs))
	subtotal := decimal.Zero
	for i, r := range reqs {
		quantity := r.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		item := models.LineItem{
			ID:            fmt.Sprintf("line-%d", i+1),
			RequirementID: r.ID,
			Quantity:      quantity,
			UnitType:      r.UnitType,
		}
		if c, ok := best[r.ID]; ok {
			item.CandidateID = c.ID
			item.ProductName = c.ProductName
			item.Description = c.Description
			item.Vendor = c.Vendor
			item.UnitPrice = c.Price
			item.TotalPrice = c.Price.Mul(decimal.NewFromInt(int64(quantity)))
			item.Notes = fmt.Sprintf("Confidence: %d%% | Availability: %s", c.Confidence, c.Availability)
		} else {
			item.ProductName = r.Name
			item.Description = customPrefix + r.Description
			item.UnitPrice = decimal.Zero
			item.TotalPrice = decimal.Zero
			item.RequiresCustomPricing = true
			item.Notes = customNotes
		}
		subtotal = subtotal.Add(item.TotalPrice)
		items = append(items, item)
	}

	tax := subtotal.Mul(TaxRate).Round(2)
	shipping := FlatShipping
	if subtotal.GreaterThan(FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	now := s.now().UTC()
	return models.Quote{
		ID:             s.newID(),
		SolicitationID: solicitationID,
		LineItems:      items,
		Subtotal:       subtotal,
		TaxRate:        TaxRate,
		TaxAmount:      tax,
		ShippingCost:   shipping,
		TotalAmount:    subtotal.Add(tax).Add(shipping),
		Currency:       currency,
		GeneratedAt:    now,
		ValidUntil:     now.Add(validFor),
		Status:         models.QuoteStatusDraft,
		Notes:          quoteNotes,
		Terms:          quoteTerms,
	}
}
