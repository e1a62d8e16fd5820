package main

import (
	"github.com/spf13/cobra"

	"govcon/research/internal/catalog"
	"govcon/research/internal/models"
	"govcon/research/internal/services/research"
	"govcon/research/internal/services/sourcing"
)

type researchOutput struct {
	Research models.ResearchResult `json:"research"`
	Quote    *models.Quote         `json:"quote,omitempty"`
}

func (a *app) researchCmd() *cobra.Command {
	var file string
	var withQuote bool

	cmd := &cobra.Command{
		Use:   "research",
		Short: "Research a solicitation file offline",
		Long: `Run the research pipeline over a solicitation JSON file and print the result.

Candidates come from the catalog fixtures only; configured HTTP sources are
not contacted and no rate limits apply.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var sol models.Solicitation
			if err := readJSON(file, &sol); err != nil {
				return err
			}

			cat, err := catalog.Load(a.cfg.CatalogPath)
			if err != nil {
				return err
			}
			for i := range cat.Sources {
				cat.Sources[i].Endpoint = ""
			}

			pipeline, err := research.NewCatalogPipeline(cat, research.Options{
				Workers:    a.cfg.SearchWorkers,
				NewLimiter: sourcing.Unlimited,
			}, a.logger)
			if err != nil {
				return err
			}

			result, err := pipeline.Run(cmd.Context(), sol)
			if err != nil {
				return err
			}
			out := researchOutput{Research: result}
			if withQuote {
				q := pipeline.Quote(result)
				out.Quote = &q
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Solicitation JSON file")
	cmd.Flags().BoolVar(&withQuote, "quote", false, "Include a draft quote")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
