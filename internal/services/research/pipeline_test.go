package research

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"govcon/research/internal/catalog"
	"govcon/research/internal/models"
	"govcon/research/internal/services/scoring"
	"govcon/research/internal/services/sourcing"
)

var pipelineNow = time.Date(2026, 6, 1, 9, 30, 0, 0, time.UTC)

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	p, err := NewCatalogPipeline(catalog.Default(), Options{
		NewLimiter: sourcing.Unlimited,
		Now:        func() time.Time { return pipelineNow },
		NewQuoteID: func() string { return "quote-test" },
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	return p
}

func serverSolicitation() models.Solicitation {
	return models.Solicitation{
		ID:    "RFQ-100",
		Title: "Rack Server Refresh",
		Description: "The contractor shall deliver exactly 12 servers. Memory: 256 GB per unit. " +
			"Processor: Intel Xeon Gold 6338. Storage: 4 TB NVMe. " +
			"Servers must be 2U rack-mount and FIPS 140-2 validated. " +
			"All systems shall comply with NIST SP 800-53, FISMA and FedRAMP Moderate controls.",
		Agency: "Department of Veterans Affairs",
		State:  "VA",
	}
}

func TestPipeline_Run(t *testing.T) {
	p := newTestPipeline(t)
	sol := serverSolicitation()

	got, err := p.Run(context.Background(), sol)
	require.NoError(t, err)

	assert.Equal(t, "RFQ-100", got.SolicitationID)
	assert.Equal(t, "completed", got.Status)
	assert.Equal(t, "USD", got.Currency)
	assert.Equal(t, pipelineNow, got.ResearchedAt)
	require.NotEmpty(t, got.Requirements)
	assert.Equal(t, "Hardware", got.Requirements[0].Category)
	assert.Contains(t, got.Analysis.GovernmentStandards, "FedRAMP")
	require.NotEmpty(t, got.Matches)

	reqIDs := map[string]bool{}
	for _, r := range got.Requirements {
		assert.NotEmpty(t, r.Category)
		reqIDs[r.ID] = true
	}
	type key struct{ name, vendor string }
	seen := map[key]bool{}
	for _, m := range got.Matches {
		require.NotNil(t, m.Compliance)
		assert.GreaterOrEqual(t, m.Compliance.TotalScore, scoring.MinTotalScore)
		assert.LessOrEqual(t, m.Confidence, 98)
		assert.True(t, reqIDs[m.RequirementID], m.RequirementID)
		k := key{m.ProductName, m.Vendor}
		assert.False(t, seen[k], "duplicate %v", k)
		seen[k] = true
	}

	quote := p.Quote(got)
	assert.True(t, quote.Subtotal.Equal(got.TotalEstimatedCost))
	assert.Len(t, quote.LineItems, len(got.Requirements))
	assert.Equal(t, len(got.Requirements), got.Summary.TotalRequirements)
	assert.Equal(t, matchedRequirements(got.Matches), got.Summary.MatchedRequirements)
}

func TestPipeline_Deterministic(t *testing.T) {
	p := newTestPipeline(t)

	first, err := p.Run(context.Background(), serverSolicitation())
	require.NoError(t, err)
	second, err := p.Run(context.Background(), serverSolicitation())
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("research results differ (-first +second):\n%s", diff)
	}
}

func TestPipeline_CancelledContext(t *testing.T) {
	p := newTestPipeline(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx, serverSolicitation())

	assert.ErrorIs(t, err, context.Canceled)
}
