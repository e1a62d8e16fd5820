package main

import (
	"github.com/spf13/cobra"

	"govcon/research/internal/catalog"
	"govcon/research/internal/models"
	"govcon/research/internal/services/matching"
)

func (a *app) matchCmd() *cobra.Command {
	var profilePath, solicitationPath string

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Score a business profile against a solicitation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var p models.Profile
			if err := readJSON(profilePath, &p); err != nil {
				return err
			}
			var sol models.Solicitation
			if err := readJSON(solicitationPath, &sol); err != nil {
				return err
			}
			cat, err := catalog.Load(a.cfg.CatalogPath)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), matching.NewScorer(cat).Score(p, sol))
		},
	}
	cmd.Flags().StringVar(&profilePath, "profile", "", "Business profile JSON file")
	cmd.Flags().StringVar(&solicitationPath, "solicitation", "", "Solicitation JSON file")
	_ = cmd.MarkFlagRequired("profile")
	_ = cmd.MarkFlagRequired("solicitation")
	return cmd
}
