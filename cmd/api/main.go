package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"govcon/research/internal/catalog"
	"govcon/research/internal/config"
	"govcon/research/internal/handlers"
	"govcon/research/internal/logging"
	"govcon/research/internal/repositories"
	"govcon/research/internal/services/matching"
	"govcon/research/internal/services/research"
	"govcon/research/internal/services/sourcing"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.RequireDatabase(); err != nil {
		log.Fatal(err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("api exited", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return err
	}

	pool, err := repositories.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	solicitations := repositories.NewSolicitationRepository(pool)

	pipeline, err := research.NewCatalogPipeline(cat, research.Options{
		Workers:    cfg.SearchWorkers,
		HTTPClient: &http.Client{Timeout: 20 * time.Second},
		NewLimiter: sourcing.PerMinute,
	}, logger.Named("pipeline"))
	if err != nil {
		return err
	}
	researchSvc := research.NewService(solicitations, repositories.NewResearchJobRepository(pool), pipeline, research.ServiceConfig{
		StaleAfter: cfg.ResearchStaleAfter,
	}, logger.Named("research"))

	reaper, err := research.NewReaper(researchSvc, cfg.ResearchReaperSchedule)
	if err != nil {
		return err
	}
	reaper.Start()
	defer reaper.Stop()

	matchingSvc := matching.NewService(
		matching.NewScorer(cat),
		repositories.NewProfileRepository(pool),
		solicitations,
		repositories.NewMatchScoreRepository(pool),
		matching.Config{BatchSize: cfg.MatchBatchSize, BatchPause: cfg.MatchBatchPause},
		logger.Named("matching"),
	)

	srv := &http.Server{
		Addr: cfg.ListenAddr,
		Handler: handlers.NewRouter(researchSvc, matchingSvc, handlers.RouterConfig{
			DefaultUserID: cfg.DefaultUserID,
		}, logger.Named("http")),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	logger.Info("api listening", zap.String("addr", cfg.ListenAddr), zap.String("env", cfg.Env))

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown incomplete", zap.Error(err))
	}
	done := make(chan struct{})
	go func() {
		researchSvc.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		// Left running; the next process's reaper fails them.
		logger.Warn("research jobs still running at shutdown")
	}
	return nil
}
