package sourcing

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"govcon/research/internal/logging"
	"govcon/research/internal/models"
)

const (
	maxSourcesPerQuery = 3
	defaultWorkers     = 4

	baseConfidence    = 70
	keywordBonusStep  = 5
	maxKeywordBonus   = 20
	reputationBonus   = 10
	minSeedConfidence = 60
	maxSeedConfidence = 95
	defaultCurrency   = "USD"
)

// SearcherConfig configures a Searcher. Zero values take defaults.
type SearcherConfig struct {
	Workers           int
	RecognizedVendors []string
	NewLimiter        LimiterFactory
}

// Searcher fans (requirement × query × source) units out to a bounded pool
// of workers. Every source has one limiter shared by all of its units.
type Searcher struct {
	sources    []CandidateSource
	limiters   map[string]Limiter
	recognized []string
	workers    int
	logger     *zap.Logger
}

func NewSearcher(sources []CandidateSource, cfg SearcherConfig, logger *zap.Logger) *Searcher {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.NewLimiter == nil {
		cfg.NewLimiter = PerMinute
	}
	limiters := make(map[string]Limiter, len(sources))
	for _, src := range sources {
		info := src.Source()
		limiters[info.Key] = cfg.NewLimiter(info)
	}
	return &Searcher{
		sources:    sources,
		limiters:   limiters,
		recognized: cfg.RecognizedVendors,
		workers:    cfg.Workers,
		logger:     logging.OrNop(logger),
	}
}

type unit struct {
	requirement models.Requirement
	query       string
	queryIndex  int
	source      CandidateSource
}

// Search returns every candidate found for the requirements, in dispatch
// order. A failing unit is logged and contributes nothing; only context
// cancellation fails the search.
func (s *Searcher) Search(ctx context.Context, reqs []models.Requirement, findings models.Findings) ([]models.Candidate, error) {
	var units []unit
	for _, r := range reqs {
		sources := s.relevantSources(r.Category)
		for qi, q := range BuildQueries(r) {
			for _, src := range sources {
				units = append(units, unit{requirement: r, query: q, queryIndex: qi, source: src})
			}
		}
	}

	results := make([][]models.Candidate, len(units))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, u := range units {
		g.Go(func() error {
			candidates, err := s.run(gctx, u, findings)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.logger.Warn("source search failed",
					zap.String("source", u.source.Source().Key),
					zap.String("requirement_id", u.requirement.ID),
					zap.String("query", u.query),
					zap.Error(err))
				return nil
			}
			results[i] = candidates
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to search sources: %w", err)
	}

	var all []models.Candidate
	for _, r := range results {
		all = append(all, r...)
	}
	s.logger.Debug("candidate search finished",
		zap.Int("requirements", len(reqs)),
		zap.Int("units", len(units)),
		zap.Int("candidates", len(all)))
	return all, nil
}

func (s *Searcher) run(ctx context.Context, u unit, findings models.Findings) ([]models.Candidate, error) {
	info := u.source.Source()
	if err := s.limiters[info.Key].Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	offers, err := u.source.Search(ctx, Request{Query: u.query, Requirement: u.requirement, Findings: findings})
	if err != nil {
		return nil, err
	}
	for i := range offers {
		c := &offers[i]
		c.ID = fmt.Sprintf("match-%s-%s-q%d-%d", u.requirement.ID, info.Key, u.queryIndex, i)
		c.RequirementID = u.requirement.ID
		c.Source = info.Name
		if c.PriceUnit == "" {
			c.PriceUnit = u.requirement.UnitType
		}
		if c.Currency == "" {
			c.Currency = defaultCurrency
		}
		c.Confidence = s.seedConfidence(u.query, u.requirement, c.Vendor)
	}
	return offers, nil
}

// relevantSources returns up to three sources serving the category,
// the marketplace first and the rest by descending priority.
func (s *Searcher) relevantSources(category string) []CandidateSource {
	var relevant []CandidateSource
	for _, src := range s.sources {
		if src.Source().Serves(category) {
			relevant = append(relevant, src)
		}
	}
	sort.SliceStable(relevant, func(i, j int) bool {
		a, b := relevant[i].Source(), relevant[j].Source()
		if a.Marketplace != b.Marketplace {
			return a.Marketplace
		}
		return a.Priority > b.Priority
	})
	return head(relevant, maxSourcesPerQuery)
}

// seedConfidence scores keyword overlap between the query and the
// requirement plus a reputation bonus, clamped to [60, 95].
func (s *Searcher) seedConfidence(query string, r models.Requirement, vendor string) int {
	keywords := make([]string, len(r.Keywords))
	for i, k := range r.Keywords {
		keywords[i] = strings.ToLower(k)
	}
	matching := 0
	for _, word := range strings.Fields(strings.ToLower(query)) {
		for _, k := range keywords {
			if strings.Contains(k, word) {
				matching++
				break
			}
		}
	}

	confidence := baseConfidence + min(matching*keywordBonusStep, maxKeywordBonus)
	for _, v := range s.recognized {
		if strings.Contains(vendor, v) {
			confidence += reputationBonus
			break
		}
	}
	return max(minSeedConfidence, min(confidence, maxSeedConfidence))
}

func head[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
