package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jdoseph/rateyourcourt-sub000/internal/geomatch"
	"github.com/jdoseph/rateyourcourt-sub000/internal/seed"
)

var (
	seedFile  string
	seedSport string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Import courts from a parks-and-recreation shapefile",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		importer := seed.NewImporter(env.courts, geomatch.Thresholds{
			MaxDistanceM:      cfg.Discovery.MaxDistanceM,
			MinNameSimilarity: cfg.Discovery.MinNameSimilarity,
		}, seedSport)

		result, err := importer.Import(cmd.Context(), seedFile)
		if err != nil {
			return err
		}

		zap.L().Info("seed import finished",
			zap.Int("read", result.Read),
			zap.Int("inserted", result.Inserted),
			zap.Int("duplicates", result.Duplicates),
			zap.Int("skipped", result.Skipped),
		)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "", "path to the .shp file")
	seedCmd.Flags().StringVar(&seedSport, "sport", "tennis", "sport assigned to unclassified features")
	seedCmd.MarkFlagRequired("file") //nolint:errcheck
	rootCmd.AddCommand(seedCmd)
}
