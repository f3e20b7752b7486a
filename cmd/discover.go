package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/jdoseph/rateyourcourt-sub000/internal/discovery"
	"github.com/jdoseph/rateyourcourt-sub000/internal/geomatch"
)

var (
	discoverLat     float64
	discoverLng     float64
	discoverRadiusM float64
	discoverSport   string
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Run one discovery pass synchronously and print stats",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		stats, err := env.runner.Run(cmd.Context(), discovery.Request{
			Point:   geomatch.Point{Lat: discoverLat, Lng: discoverLng},
			RadiusM: discoverRadiusM,
			Sport:   discoverSport,
		})
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	},
}

func init() {
	discoverCmd.Flags().Float64Var(&discoverLat, "lat", 0, "search center latitude")
	discoverCmd.Flags().Float64Var(&discoverLng, "lng", 0, "search center longitude")
	discoverCmd.Flags().Float64Var(&discoverRadiusM, "radius", 2000, "search radius in meters")
	discoverCmd.Flags().StringVar(&discoverSport, "sport", "tennis", "sport type")
	discoverCmd.MarkFlagRequired("lat") //nolint:errcheck
	discoverCmd.MarkFlagRequired("lng") //nolint:errcheck
	rootCmd.AddCommand(discoverCmd)
}
