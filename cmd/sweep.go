package main

import (
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/jdoseph/rateyourcourt-sub000/internal/discovery"
	"github.com/jdoseph/rateyourcourt-sub000/internal/geomatch"
)

var sweepFile string

// sweepArea is one entry in the sweep areas file.
type sweepArea struct {
	Name    string   `yaml:"name"`
	Lat     float64  `yaml:"lat"`
	Lng     float64  `yaml:"lng"`
	RadiusM float64  `yaml:"radius_m"`
	Sports  []string `yaml:"sports"`
}

type sweepSpec struct {
	Areas []sweepArea `yaml:"areas"`
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Enqueue discovery jobs for every configured area and run them to completion",
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(sweepFile)
		if err != nil {
			return eris.Wrapf(err, "read sweep file %s", sweepFile)
		}

		var spec sweepSpec
		if err := yaml.Unmarshal(raw, &spec); err != nil {
			return eris.Wrap(err, "parse sweep file")
		}
		if len(spec.Areas) == 0 {
			return eris.New("sweep file lists no areas")
		}

		env, err := initPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		env.manager.Start(cmd.Context())
		defer env.manager.Stop()

		enqueued := 0
		for _, area := range spec.Areas {
			for _, sport := range area.Sports {
				_, err := env.manager.Enqueue(cmd.Context(), discovery.Request{
					Point:   geomatch.Point{Lat: area.Lat, Lng: area.Lng},
					RadiusM: area.RadiusM,
					Sport:   sport,
				})
				if err != nil {
					zap.L().Warn("skipping invalid sweep area",
						zap.String("area", area.Name),
						zap.String("sport", sport),
						zap.Error(err),
					)
					continue
				}
				enqueued++
			}
		}

		zap.L().Info("sweep enqueued", zap.Int("jobs", enqueued))

		for {
			snap := env.manager.Status()
			if snap.Waiting == 0 && snap.Active == 0 {
				zap.L().Info("sweep complete",
					zap.Int("completed", snap.Completed),
					zap.Int("failed", snap.Failed),
				)
				return nil
			}
			select {
			case <-cmd.Context().Done():
				return cmd.Context().Err()
			case <-time.After(200 * time.Millisecond):
			}
		}
	},
}

func init() {
	sweepCmd.Flags().StringVar(&sweepFile, "file", "sweep.yaml", "YAML file listing sweep areas")
	rootCmd.AddCommand(sweepCmd)
}
