package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type QuoteStatus string

const QuoteStatusDraft QuoteStatus = "draft"

// LineItem prices one requirement. Placeholders carry a zero price and RequiresCustomPricing.
type LineItem struct {
	ID                    string          `json:"id"`
	RequirementID         string          `json:"requirementId"`
	CandidateID           string          `json:"candidateId,omitempty"`
	ProductName           string          `json:"productName"`
	Description           string          `json:"description"`
	Vendor                string          `json:"vendor"`
	Quantity              int             `json:"quantity"`
	UnitType              string          `json:"unitType"`
	UnitPrice             decimal.Decimal `json:"unitPrice"`
	TotalPrice            decimal.Decimal `json:"totalPrice"`
	RequiresCustomPricing bool            `json:"requiresCustomPricing"`
	Notes                 string          `json:"notes"`
}

// Quote is a draft price quote for a solicitation.
type Quote struct {
	ID             string          `json:"id"`
	SolicitationID string          `json:"solicitationId"`
	LineItems      []LineItem      `json:"lineItems"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxRate        decimal.Decimal `json:"taxRate"`
	TaxAmount      decimal.Decimal `json:"taxAmount"`
	ShippingCost   decimal.Decimal `json:"shippingCost"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	Currency       string          `json:"currency"`
	GeneratedAt    time.Time       `json:"generatedAt"`
	ValidUntil     time.Time       `json:"validUntil"`
	Status         QuoteStatus     `json:"status"`
	Notes          string          `json:"notes"`
	Terms          string          `json:"terms"`
}
