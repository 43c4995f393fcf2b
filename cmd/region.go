package main

import (
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/locality/internal/location"
	"github.com/sells-group/locality/internal/nearby"
)

var regionCmd = &cobra.Command{
	Use:   "region <state|district> <id>",
	Short: "Print a region's representative coordinate and pincode",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		kind, ok := location.ParseKind(args[0])
		if !ok || !kind.IsRegion() {
			return eris.Errorf("invalid region kind %q: want state or district", args[0])
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return eris.Wrapf(err, "invalid id %q", args[1])
		}

		st, err := openStore(ctx, "cli")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		s := nearby.NewSearcher(st, nearby.WithDelta(cfg.Nearby.Delta))
		out := struct {
			Kind    location.Kind        `json:"kind"`
			ID      int64                `json:"id"`
			Center  *location.Coordinate `json:"center"`
			Pincode *location.Pincode    `json:"pincode"`
		}{Kind: kind, ID: id}

		out.Center, err = s.Center(ctx, kind, id)
		if err != nil && !eris.Is(err, nearby.ErrNoCoordinates) {
			return eris.Wrap(err, "center")
		}
		out.Pincode, err = s.Pincode(ctx, kind, id)
		if err != nil && !eris.Is(err, nearby.ErrNoPincode) {
			return eris.Wrap(err, "pincode")
		}
		return printJSON(cmd, out)
	},
}

func init() {
	rootCmd.AddCommand(regionCmd)
}
