package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"govcon/research/internal/repositories"
	"govcon/research/internal/services/ingestion"
)

const samDateLayout = "01/02/2006"

func (a *app) ingestCmd() *cobra.Command {
	var file string
	var days int

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load SAM.gov opportunities into the solicitation store",
		Long: `Load SAM.gov opportunity notices into the opportunity table.

With --file, notices are read from a saved search response. Otherwise the
SAM.gov API is paged over the last --days days (INGESTION_WINDOW_DAYS).
Unchanged notices are skipped. Only one ingestion runs at a time.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.RequireDatabase(); err != nil {
				return err
			}
			if days <= 0 {
				days = a.cfg.IngestionWindowDays
			}
			ctx := cmd.Context()

			var page ingestion.Page
			if file != "" {
				if err := readJSON(file, &page); err != nil {
					return err
				}
			} else if a.cfg.SAMAPIKey == "" {
				return errors.New("SAM_API_KEY is not set; pass --file to ingest a saved response")
			}

			pool, err := repositories.Connect(ctx, a.cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()
			store := repositories.NewSolicitationRepository(pool)
			var client *ingestion.SAMClient
			var describer ingestion.Describer
			if a.cfg.SAMAPIKey != "" {
				client = ingestion.NewSAMClient(a.cfg.SAMAPIKey, a.cfg.SAMBaseURL, a.cfg.SAMRequestsPerMin, nil)
				describer = client
			}
			ingester := ingestion.NewIngester(store, describer, a.logger)

			var stats ingestion.Stats
			err = store.WithIngestionLock(ctx, func(ctx context.Context) error {
				if file != "" {
					stats, err = ingester.Ingest(ctx, page.OpportunitiesData)
					return err
				}
				now := time.Now()
				from := now.AddDate(0, 0, -days).Format(samDateLayout)
				to := now.Format(samDateLayout)
				a.logger.Info("pulling opportunities", zap.String("from", from), zap.String("to", to))
				stats, err = ingester.IngestRange(ctx, client, from, to)
				return err
			})
			if errors.Is(err, repositories.ErrIngestionLocked) {
				a.logger.Info("another ingestion job is already running")
				return nil
			}
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), stats); err != nil {
				return err
			}
			if stats.Errors > 0 {
				return fmt.Errorf("%d of %d notices failed to ingest", stats.Errors, stats.Total)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Saved SAM.gov search response JSON")
	cmd.Flags().IntVar(&days, "days", 0, "Posted-date window in days")
	return cmd
}
