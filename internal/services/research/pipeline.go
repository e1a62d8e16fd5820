// Package research runs the solicitation research pipeline and tracks its
// background jobs.
package research

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"govcon/research/internal/catalog"
	"govcon/research/internal/logging"
	"govcon/research/internal/models"
	"govcon/research/internal/services/analysis"
	"govcon/research/internal/services/quoting"
	"govcon/research/internal/services/scoring"
	"govcon/research/internal/services/sourcing"
)

const (
	currency        = "USD"
	statusCompleted = "completed"
)

// Pipeline runs analysis, sourcing, scoring and selection for one solicitation.
// It holds no per-run state, so one instance serves concurrent runs.
type Pipeline struct {
	classifier analysis.TextClassifier
	builder    *analysis.RequirementBuilder
	searcher   *sourcing.Searcher
	scorer     *scoring.ComplianceScorer
	quotes     *quoting.Synthesizer
	now        func() time.Time
	logger     *zap.Logger
}

type PipelineDeps struct {
	Classifier analysis.TextClassifier
	Builder    *analysis.RequirementBuilder
	Searcher   *sourcing.Searcher
	Scorer     *scoring.ComplianceScorer
	Quotes     *quoting.Synthesizer
	Now        func() time.Time
}

func NewPipeline(deps PipelineDeps, logger *zap.Logger) *Pipeline {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Pipeline{
		classifier: deps.Classifier,
		builder:    deps.Builder,
		searcher:   deps.Searcher,
		scorer:     deps.Scorer,
		quotes:     deps.Quotes,
		now:        deps.Now,
		logger:     logging.OrNop(logger),
	}
}

// Options configures NewCatalogPipeline. Zero values take defaults.
type Options struct {
	Workers    int
	HTTPClient *http.Client
	NewLimiter sourcing.LimiterFactory
	Now        func() time.Time
	NewQuoteID func() string
}

// NewCatalogPipeline wires every stage from the catalog tables.
func NewCatalogPipeline(cat *catalog.Catalog, opts Options, logger *zap.Logger) (*Pipeline, error) {
	classifier := analysis.NewPatternExtractor()
	builder, err := analysis.NewRequirementBuilder(cat, classifier)
	if err != nil {
		return nil, fmt.Errorf("failed to build requirement rules: %w", err)
	}
	searcher := sourcing.NewSearcher(sourcing.NewSources(cat, opts.HTTPClient), sourcing.SearcherConfig{
		Workers:           opts.Workers,
		RecognizedVendors: cat.RecognizedVendors,
		NewLimiter:        opts.NewLimiter,
	}, logger)
	return NewPipeline(PipelineDeps{
		Classifier: classifier,
		Builder:    builder,
		Searcher:   searcher,
		Scorer:     scoring.NewComplianceScorer(cat.Marketplace().Name, logger),
		Quotes:     quoting.NewSynthesizer(opts.Now, opts.NewQuoteID),
		Now:        opts.Now,
	}, logger), nil
}

// Run researches sol. Matches in the result are accepted, deduplicated and
// in rank order.
func (p *Pipeline) Run(ctx context.Context, sol models.Solicitation) (models.ResearchResult, error) {
	corpus := analysis.AssembleCorpus(sol)
	findings := p.classifier.Classify(corpus)
	reqs := p.builder.Build(sol, corpus, findings)

	candidates, err := p.searcher.Search(ctx, reqs, findings)
	if err != nil {
		return models.ResearchResult{}, fmt.Errorf("failed to source candidates: %w", err)
	}
	accepted := p.scorer.Apply(candidates, findings)
	ranked := scoring.Select(accepted)

	p.logger.Info("research pipeline finished",
		zap.String("solicitation_id", sol.ID),
		zap.Int("requirements", len(reqs)),
		zap.Int("candidates", len(candidates)),
		zap.Int("accepted", len(accepted)),
		zap.Int("matches", len(ranked)))

	return models.ResearchResult{
		SolicitationID:     sol.ID,
		Requirements:       reqs,
		Matches:            ranked,
		Analysis:           findings,
		TotalEstimatedCost: p.quotes.Quote(sol.ID, reqs, ranked).Subtotal,
		Currency:           currency,
		ResearchedAt:       p.now().UTC(),
		Status:             statusCompleted,
		Summary:            Summarize(reqs, ranked),
	}, nil
}

// Quote synthesizes a fresh quote from a completed result.
func (p *Pipeline) Quote(result models.ResearchResult) models.Quote {
	return p.quotes.Quote(result.SolicitationID, result.Requirements, result.Matches)
}
