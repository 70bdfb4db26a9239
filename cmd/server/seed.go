package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sakif/portfolio/internal/server"
	"github.com/sakif/portfolio/internal/service"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write the built-in sample content into an empty store",
	Long: `seed stores the sample hero, footer, CV, certificates and experience
as real documents so the admin starts editing from the text visitors already
see. Sections that already have content are left alone.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}

		store, closer, err := server.OpenStore(cfg.Store, logger)
		if err != nil {
			return err
		}
		if closer != nil {
			defer closer.Close()
		}

		report, err := service.NewContentService(store, logger).Seed(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d sections and %d items\n", report.Singletons, report.Items)
		return nil
	},
}
