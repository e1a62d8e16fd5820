package matching

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"govcon/research/internal/logging"
	"govcon/research/internal/models"
	"govcon/research/internal/repositories"
)

const (
	MaxBatchIDs      = 50
	DefaultListLimit = 20
	MaxListLimit     = 100

	defaultBatchSize  = 10
	defaultBatchPause = 100 * time.Millisecond
)

var (
	ErrProfileNotFound      = errors.New("user profile not found")
	ErrSolicitationNotFound = errors.New("solicitation not found")
	ErrScoreNotFound        = errors.New("match score not calculated")
)

// ValidationError is a malformed request. Its message is safe to show to clients.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

type ProfileStore interface {
	GetByUserID(ctx context.Context, userID string) (models.Profile, error)
}

type SolicitationStore interface {
	GetByID(ctx context.Context, id string) (models.Solicitation, error)
}

// ScoreStore caches breakdowns keyed by (user, solicitation).
type ScoreStore interface {
	Get(ctx context.Context, userID, solicitationID string) (models.MatchScore, error)
	GetMany(ctx context.Context, userID string, solicitationIDs []string) (map[string]models.MatchScore, error)
	Upsert(ctx context.Context, score models.MatchScore) error
	List(ctx context.Context, userID string, minScore, limit int) ([]models.MatchScore, []models.SolicitationSummary, error)
}

// Config tunes batch processing. A zero BatchSize takes the default and a
// zero BatchPause disables the pause between chunks.
type Config struct {
	BatchSize  int
	BatchPause time.Duration
	Now        func() time.Time
	// Sleep waits between batches; it returns early with ctx.Err() on cancellation.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Service scores and caches profile matches.
type Service struct {
	scorer        *Scorer
	profiles      ProfileStore
	solicitations SolicitationStore
	scores        ScoreStore
	batchSize     int
	batchPause    time.Duration
	now           func() time.Time
	sleep         func(ctx context.Context, d time.Duration) error
	logger        *zap.Logger
}

func NewService(scorer *Scorer, profiles ProfileStore, solicitations SolicitationStore, scores ScoreStore, cfg Config, logger *zap.Logger) *Service {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.BatchPause < 0 {
		cfg.BatchPause = defaultBatchPause
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Sleep == nil {
		cfg.Sleep = sleepContext
	}
	return &Service{
		scorer:        scorer,
		profiles:      profiles,
		solicitations: solicitations,
		scores:        scores,
		batchSize:     cfg.BatchSize,
		batchPause:    cfg.BatchPause,
		now:           cfg.Now,
		sleep:         cfg.Sleep,
		logger:        logging.OrNop(logger),
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (s *Service) profile(ctx context.Context, userID string) (models.Profile, error) {
	p, err := s.profiles.GetByUserID(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return models.Profile{}, ErrProfileNotFound
	}
	if err != nil {
		return models.Profile{}, fmt.Errorf("failed to load profile: %w", err)
	}
	return p, nil
}

// Calculate scores one solicitation for the user and caches the result.
func (s *Service) Calculate(ctx context.Context, userID, solicitationID string) (models.MatchScore, error) {
	p, err := s.profile(ctx, userID)
	if err != nil {
		return models.MatchScore{}, err
	}
	return s.calculate(ctx, p, userID, solicitationID)
}

func (s *Service) calculate(ctx context.Context, p models.Profile, userID, solicitationID string) (models.MatchScore, error) {
	sol, err := s.solicitations.GetByID(ctx, solicitationID)
	if errors.Is(err, repositories.ErrNotFound) {
		return models.MatchScore{}, ErrSolicitationNotFound
	}
	if err != nil {
		return models.MatchScore{}, fmt.Errorf("failed to load solicitation: %w", err)
	}

	breakdown := s.scorer.Score(p, sol)
	score := models.MatchScore{
		UserID:         userID,
		SolicitationID: solicitationID,
		OverallScore:   breakdown.OverallScore,
		Breakdown:      breakdown,
		CalculatedAt:   s.now().UTC(),
	}
	if err := s.scores.Upsert(ctx, score); err != nil {
		return models.MatchScore{}, fmt.Errorf("failed to cache match score: %w", err)
	}
	return score, nil
}

// Cached returns the stored score, or ErrScoreNotFound.
func (s *Service) Cached(ctx context.Context, userID, solicitationID string) (models.MatchScore, error) {
	score, err := s.scores.Get(ctx, userID, solicitationID)
	if errors.Is(err, repositories.ErrNotFound) {
		return models.MatchScore{}, ErrScoreNotFound
	}
	if err != nil {
		return models.MatchScore{}, fmt.Errorf("failed to load match score: %w", err)
	}
	return score, nil
}

type BatchRequest struct {
	IDs              []string `json:"ids"`
	ForceRecalculate bool     `json:"force_recalculate"`
}

type BatchItem struct {
	ID           string    `json:"id"`
	OverallScore int       `json:"overall_score"`
	Calculated   bool      `json:"calculated"`
	CachedAt     time.Time `json:"cached_at"`
}

type BatchError struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

type BatchSummary struct {
	TotalRequested  int `json:"total_requested"`
	NewlyCalculated int `json:"newly_calculated"`
	AlreadyCached   int `json:"already_cached"`
	Errors          int `json:"errors"`
}

type BatchResult struct {
	Summary        BatchSummary `json:"summary"`
	Results        []BatchItem  `json:"results"`
	Errors         []BatchError `json:"errors,omitempty"`
	ProcessingTime string       `json:"processing_time"`
}

// Validate checks a batch request without touching any store.
func (r BatchRequest) Validate() error {
	if len(r.IDs) == 0 {
		return &ValidationError{Message: "ids array is required"}
	}
	if len(r.IDs) > MaxBatchIDs {
		return &ValidationError{Message: fmt.Sprintf("Maximum %d solicitations can be processed at once", MaxBatchIDs)}
	}
	for _, id := range r.IDs {
		if strings.TrimSpace(id) == "" {
			return &ValidationError{Message: "ids must be non-empty strings"}
		}
		if !models.ValidSolicitationID(id) {
			return &ValidationError{Message: fmt.Sprintf("invalid solicitation id %q", id)}
		}
	}
	return nil
}

// BatchCalculate scores many solicitations for one user. Cached scores are
// reused unless ForceRecalculate is set. Uncached ids are processed in
// chunks of BatchSize, in parallel within a chunk, pausing between chunks.
// A failing item is reported in Errors and never aborts its siblings.
func (s *Service) BatchCalculate(ctx context.Context, userID string, req BatchRequest) (BatchResult, error) {
	if err := req.Validate(); err != nil {
		return BatchResult{}, err
	}
	ids := uniqueIDs(req.IDs)

	p, err := s.profile(ctx, userID)
	if err != nil {
		return BatchResult{}, err
	}

	cached := map[string]models.MatchScore{}
	if !req.ForceRecalculate {
		cached, err = s.scores.GetMany(ctx, userID, ids)
		if err != nil {
			return BatchResult{}, fmt.Errorf("failed to load cached scores: %w", err)
		}
	}

	var pending []string
	for _, id := range ids {
		if _, ok := cached[id]; !ok {
			pending = append(pending, id)
		}
	}

	type outcome struct {
		score models.MatchScore
		err   error
	}
	outcomes := make([]outcome, len(pending))
	for start := 0; start < len(pending); start += s.batchSize {
		if start > 0 {
			if err := s.sleep(ctx, s.batchPause); err != nil {
				return BatchResult{}, err
			}
		}
		end := min(start+s.batchSize, len(pending))

		var g errgroup.Group
		for i := start; i < end; i++ {
			g.Go(func() error {
				score, err := s.calculate(ctx, p, userID, pending[i])
				outcomes[i] = outcome{score: score, err: err}
				return nil
			})
		}
		_ = g.Wait()
	}

	result := BatchResult{Results: []BatchItem{}}
	for i, o := range outcomes {
		if o.err != nil {
			s.logger.Warn("match calculation failed",
				zap.String("user_id", userID),
				zap.String("solicitation_id", pending[i]),
				zap.Error(o.err))
			result.Errors = append(result.Errors, BatchError{ID: pending[i], Error: o.err.Error()})
			continue
		}
		result.Results = append(result.Results, BatchItem{
			ID:           o.score.SolicitationID,
			OverallScore: o.score.OverallScore,
			Calculated:   true,
			CachedAt:     o.score.CalculatedAt,
		})
	}
	newly := len(result.Results)
	for _, id := range ids {
		if c, ok := cached[id]; ok {
			result.Results = append(result.Results, BatchItem{
				ID:           id,
				OverallScore: c.OverallScore,
				CachedAt:     c.CalculatedAt,
			})
		}
	}
	sort.SliceStable(result.Results, func(i, j int) bool {
		return result.Results[i].OverallScore > result.Results[j].OverallScore
	})

	result.Summary = BatchSummary{
		TotalRequested:  len(req.IDs),
		NewlyCalculated: newly,
		AlreadyCached:   len(result.Results) - newly,
		Errors:          len(result.Errors),
	}
	result.ProcessingTime = s.now().UTC().Format(time.RFC3339)

	s.logger.Info("batch match calculation finished",
		zap.String("user_id", userID),
		zap.Int("requested", result.Summary.TotalRequested),
		zap.Int("calculated", result.Summary.NewlyCalculated),
		zap.Int("cached", result.Summary.AlreadyCached),
		zap.Int("errors", result.Summary.Errors))
	return result, nil
}

type ListOptions struct {
	MinScore         int
	Limit            int
	IncludeBreakdown bool
}

// List returns the user's cached scores at or above MinScore, best first.
func (s *Service) List(ctx context.Context, userID string, opts ListOptions) ([]models.MatchScoreEntry, error) {
	if opts.Limit <= 0 {
		opts.Limit = DefaultListLimit
	}
	if opts.Limit > MaxListLimit {
		opts.Limit = MaxListLimit
	}
	scores, summaries, err := s.scores.List(ctx, userID, max(opts.MinScore, 0), opts.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list match scores: %w", err)
	}
	entries := make([]models.MatchScoreEntry, len(scores))
	for i, score := range scores {
		entries[i] = models.NewMatchScoreEntry(score, summaries[i], opts.IncludeBreakdown)
	}
	return entries, nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
