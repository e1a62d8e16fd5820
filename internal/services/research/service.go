package research

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"govcon/research/internal/logging"
	"govcon/research/internal/models"
	"govcon/research/internal/repositories"
)

var (
	ErrSolicitationNotFound = errors.New("solicitation not found")
	ErrResearchNotFound     = errors.New("research not started")
)

type SolicitationStore interface {
	GetByID(ctx context.Context, id string) (models.Solicitation, error)
}

// JobStore persists research jobs. Transitions on a job that is missing or
// already terminal return repositories.ErrNotFound.
type JobStore interface {
	Start(ctx context.Context, job models.ResearchJob) (models.ResearchJob, bool, error)
	Latest(ctx context.Context, solicitationID string) (models.ResearchJob, error)
	MarkRunning(ctx context.Context, id string, at time.Time) error
	Complete(ctx context.Context, id string, result models.ResearchResult, at time.Time) error
	Fail(ctx context.Context, id, reason string, at time.Time) error
	FailStale(ctx context.Context, cutoff time.Time, reason string) (int64, error)
}

// Runner executes the research pipeline.
type Runner interface {
	Run(ctx context.Context, sol models.Solicitation) (models.ResearchResult, error)
	Quote(result models.ResearchResult) models.Quote
}

type ServiceConfig struct {
	// StaleAfter is how long a job may stay active before the reaper fails it.
	StaleAfter time.Duration
	Now        func() time.Time
	NewID      func() string
}

// Service starts research jobs in the background and reports their state.
type Service struct {
	solicitations SolicitationStore
	jobs          JobStore
	runner        Runner
	staleAfter    time.Duration
	now           func() time.Time
	newID         func() string
	logger        *zap.Logger

	wg sync.WaitGroup
}

func NewService(solicitations SolicitationStore, jobs JobStore, runner Runner, cfg ServiceConfig, logger *zap.Logger) *Service {
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 30 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	return &Service{
		solicitations: solicitations,
		jobs:          jobs,
		runner:        runner,
		staleAfter:    cfg.StaleAfter,
		now:           cfg.Now,
		newID:         cfg.NewID,
		logger:        logging.OrNop(logger),
	}
}

// Start records a pending job and runs the pipeline in the background. When
// the solicitation already has an active job, that job is returned instead.
// The run outlives ctx.
func (s *Service) Start(ctx context.Context, userID, solicitationID string) (models.ResearchJob, error) {
	sol, err := s.solicitations.GetByID(ctx, solicitationID)
	if errors.Is(err, repositories.ErrNotFound) {
		return models.ResearchJob{}, ErrSolicitationNotFound
	}
	if err != nil {
		return models.ResearchJob{}, fmt.Errorf("failed to load solicitation: %w", err)
	}

	job, created, err := s.jobs.Start(ctx, models.ResearchJob{
		ID:             s.newID(),
		SolicitationID: solicitationID,
		UserID:         userID,
		Status:         models.JobPending,
		CreatedAt:      s.now().UTC(),
	})
	if err != nil {
		return models.ResearchJob{}, fmt.Errorf("failed to start research job: %w", err)
	}
	if !created {
		s.logger.Info("research already in progress",
			zap.String("job_id", job.ID),
			zap.String("solicitation_id", solicitationID),
			zap.String("status", string(job.Status)))
		return job, nil
	}

	s.logger.Info("research job queued",
		zap.String("job_id", job.ID),
		zap.String("solicitation_id", solicitationID),
		zap.String("user_id", userID))

	s.wg.Add(1)
	go s.run(context.WithoutCancel(ctx), job, sol)
	return job, nil
}

func (s *Service) run(ctx context.Context, job models.ResearchJob, sol models.Solicitation) {
	defer s.wg.Done()
	log := s.logger.With(zap.String("job_id", job.ID), zap.String("solicitation_id", job.SolicitationID))

	defer func() {
		if r := recover(); r != nil {
			log.Error("research pipeline panicked", zap.Any("panic", r), zap.Stack("stack"))
			s.fail(ctx, log, job.ID, fmt.Sprintf("research panicked: %v", r))
		}
	}()

	if err := s.jobs.MarkRunning(ctx, job.ID, s.now().UTC()); err != nil {
		log.Error("failed to mark research job running", zap.Error(err))
		return
	}
	log.Info("research job running")

	result, err := s.runner.Run(ctx, sol)
	if err != nil {
		log.Error("research pipeline failed", zap.Error(err))
		s.fail(ctx, log, job.ID, err.Error())
		return
	}

	if err := s.jobs.Complete(ctx, job.ID, result, s.now().UTC()); err != nil {
		log.Error("failed to store research result", zap.Error(err))
		return
	}
	log.Info("research job completed",
		zap.Int("requirements", result.Summary.TotalRequirements),
		zap.Int("matched_requirements", result.Summary.MatchedRequirements))
}

func (s *Service) fail(ctx context.Context, log *zap.Logger, id, reason string) {
	if err := s.jobs.Fail(ctx, id, reason, s.now().UTC()); err != nil {
		log.Error("failed to mark research job failed", zap.Error(err))
		return
	}
	log.Info("research job failed", zap.String("reason", reason))
}

// Wait blocks until every background run started by this service returns.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Latest returns the most recent job for the solicitation, or ErrResearchNotFound.
func (s *Service) Latest(ctx context.Context, solicitationID string) (models.ResearchJob, error) {
	job, err := s.jobs.Latest(ctx, solicitationID)
	if errors.Is(err, repositories.ErrNotFound) {
		return models.ResearchJob{}, ErrResearchNotFound
	}
	if err != nil {
		return models.ResearchJob{}, fmt.Errorf("failed to load research job: %w", err)
	}
	return job, nil
}

// Quote synthesizes a fresh quote for a completed result.
func (s *Service) Quote(result models.ResearchResult) models.Quote {
	return s.runner.Quote(result)
}

const staleReason = "research timed out"

// ReapStale fails active jobs older than the stale threshold.
func (s *Service) ReapStale(ctx context.Context) (int64, error) {
	cutoff := s.now().UTC().Add(-s.staleAfter)
	n, err := s.jobs.FailStale(ctx, cutoff, staleReason)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Warn("failed stale research jobs", zap.Int64("count", n), zap.Time("cutoff", cutoff))
	}
	return n, nil
}
