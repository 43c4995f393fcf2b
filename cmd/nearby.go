package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/locality/internal/nearby"
)

var (
	nearbyLat     string
	nearbyLon     string
	nearbyNearest bool
)

var nearbyCmd = &cobra.Command{
	Use:   "nearby",
	Short: "List places near a coordinate",
	Long:  "Lists places with a recorded coordinate within nearby.delta degrees of --lat/--lon, closest first. With --nearest, prints only the single closest place.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx, "cli")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		s := nearby.NewSearcher(st, nearby.WithDelta(cfg.Nearby.Delta))

		if nearbyNearest {
			lat, lon, ok := nearby.ParseCoordinates(nearbyLat, nearbyLon)
			if !ok {
				return eris.Errorf("invalid coordinates %q, %q", nearbyLat, nearbyLon)
			}
			hit, err := s.Nearest(ctx, lat, lon)
			if err != nil {
				return eris.Wrap(err, "nearest")
			}
			return printJSON(cmd, hit)
		}

		hits, err := s.Nearby(ctx, nearbyLat, nearbyLon)
		if err != nil {
			return eris.Wrap(err, "nearby")
		}
		if hits == nil {
			hits = []nearby.Hit{}
		}
		return printJSON(cmd, hits)
	},
}

func init() {
	nearbyCmd.Flags().StringVar(&nearbyLat, "lat", "", "latitude in degrees (required)")
	nearbyCmd.Flags().StringVar(&nearbyLon, "lon", "", "longitude in degrees (required)")
	nearbyCmd.Flags().BoolVar(&nearbyNearest, "nearest", false, "print only the nearest place")
	_ = nearbyCmd.MarkFlagRequired("lat")
	_ = nearbyCmd.MarkFlagRequired("lon")
	rootCmd.AddCommand(nearbyCmd)
}
