package ingestion

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"govcon/research/internal/logging"
	"govcon/research/internal/models"
)

// Store writes opportunities, skipping rows whose content hash is unchanged.
type Store interface {
	UpsertOpportunity(ctx context.Context, row models.OpportunityRow, hash string) (models.IngestOutcome, error)
}

// Searcher fetches one page of notices.
type Searcher interface {
	Search(ctx context.Context, req PageRequest) (Page, error)
}

// Describer resolves a noticedesc link to its text.
type Describer interface {
	FetchDescription(ctx context.Context, descURL string) (string, error)
}

type Stats struct {
	New     int `json:"new"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
	Total   int `json:"total"`
}

type Ingester struct {
	store     Store
	describer Describer
	logger    *zap.Logger
}

// NewIngester returns an ingester writing to store. When describer is nil,
// linked descriptions are stored empty.
func NewIngester(store Store, describer Describer, logger *zap.Logger) *Ingester {
	return &Ingester{store: store, describer: describer, logger: logging.OrNop(logger)}
}

// Ingest stores notices one by one. A bad notice is counted and logged; it
// does not stop the rest. Only context cancellation aborts the run.
func (i *Ingester) Ingest(ctx context.Context, notices []Notice) (Stats, error) {
	var stats Stats
	for _, n := range notices {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Total++
		outcome, err := i.ingestOne(ctx, n)
		if err != nil {
			stats.Errors++
			i.logger.Warn("failed to ingest notice", zap.String("notice_id", n.NoticeID), zap.Error(err))
			continue
		}
		switch outcome {
		case models.IngestNew:
			stats.New++
		case models.IngestUpdated:
			stats.Updated++
		case models.IngestSkipped:
			stats.Skipped++
		}
	}
	return stats, nil
}

func (i *Ingester) ingestOne(ctx context.Context, n Notice) (models.IngestOutcome, error) {
	if IsDescriptionURL(n.Description) {
		n.Description = i.describe(ctx, n)
	}
	row, err := n.Row()
	if err != nil {
		return "", err
	}
	hash, err := ContentHash(row)
	if err != nil {
		return "", err
	}
	return i.store.UpsertOpportunity(ctx, row, hash)
}

func (i *Ingester) describe(ctx context.Context, n Notice) string {
	if i.describer == nil {
		return ""
	}
	text, err := i.describer.FetchDescription(ctx, n.Description)
	if err != nil {
		if !errors.Is(err, ErrDescriptionNotFound) {
			i.logger.Warn("failed to fetch description", zap.String("notice_id", n.NoticeID), zap.Error(err))
		}
		return ""
	}
	return text
}

// IngestRange pages through every notice posted between postedFrom and postedTo.
func (i *Ingester) IngestRange(ctx context.Context, searcher Searcher, postedFrom, postedTo string) (Stats, error) {
	var total Stats
	for offset := 0; ; offset += pageLimit {
		page, err := searcher.Search(ctx, PageRequest{
			PostedFrom: postedFrom,
			PostedTo:   postedTo,
			Limit:      pageLimit,
			Offset:     offset,
		})
		if err != nil {
			return total, fmt.Errorf("failed to fetch opportunities at offset %d: %w", offset, err)
		}

		stats, err := i.Ingest(ctx, page.OpportunitiesData)
		total.add(stats)
		if err != nil {
			return total, err
		}
		i.logger.Info("ingested page",
			zap.Int("offset", offset),
			zap.Int("notices", len(page.OpportunitiesData)),
			zap.Int("total_records", page.TotalRecords))

		if len(page.OpportunitiesData) == 0 || offset+pageLimit >= page.TotalRecords {
			return total, nil
		}
	}
}

func (s *Stats) add(o Stats) {
	s.New += o.New
	s.Updated += o.Updated
	s.Skipped += o.Skipped
	s.Errors += o.Errors
	s.Total += o.Total
}
