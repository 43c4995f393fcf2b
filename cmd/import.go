package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/locality/internal/importer"
)

var (
	importCSVPath string
	importMigrate bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import states, districts, places, coordinates and pincodes from CSV",
	Long:  "Reads a CSV with columns state,district,place,latitude,longitude,pincode and appends it to the store. Running servers must be restarted to see new slugs.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx, "cli")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if importMigrate {
			if err := st.Migrate(ctx); err != nil {
				return eris.Wrap(err, "migrate")
			}
		}

		f, err := os.Open(importCSVPath)
		if err != nil {
			return eris.Wrap(err, "open csv")
		}
		defer f.Close() //nolint:errcheck

		stats, err := importer.New(st).Import(ctx, f)
		if err != nil {
			return eris.Wrap(err, "import csv")
		}

		zap.L().Info("import complete",
			zap.String("csv", importCSVPath),
			zap.String("batch_id", stats.BatchID),
			zap.Int("places", stats.Places),
		)
		return printJSON(cmd, stats)
	},
}

func init() {
	importCmd.Flags().StringVar(&importCSVPath, "csv", "", "path to CSV file (required)")
	importCmd.Flags().BoolVar(&importMigrate, "migrate", false, "apply migrations before importing")
	_ = importCmd.MarkFlagRequired("csv")
	rootCmd.AddCommand(importCmd)
}
