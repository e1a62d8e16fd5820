// Package sourcing discovers candidate products for extracted requirements by
// querying vendor sources under per-source rate limits.
package sourcing

import (
	"context"
	"net/http"

	"govcon/research/internal/catalog"
	"govcon/research/internal/models"
)

// Request is one search call against one source.
type Request struct {
	Query       string
	Requirement models.Requirement
	Findings    models.Findings
}

// CandidateSource searches a single vendor. Implementations return offers
// with product, vendor, price and specification fields populated; the
// searcher assigns ids, requirement ids and confidence.
type CandidateSource interface {
	Source() catalog.Source
	Search(ctx context.Context, req Request) ([]models.Candidate, error)
}

// NewSources builds one source per catalog entry: an HTTP client when the
// entry names an endpoint, the offline catalog fixture otherwise.
func NewSources(cat *catalog.Catalog, client *http.Client) []CandidateSource {
	sources := make([]CandidateSource, 0, len(cat.Sources))
	for _, s := range cat.Sources {
		if s.Endpoint != "" {
			sources = append(sources, NewHTTPSource(s, client))
			continue
		}
		sources = append(sources, NewCatalogSource(s, cat))
	}
	return sources
}
