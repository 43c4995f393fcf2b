package main

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/locality/internal/location"
	"github.com/sells-group/locality/internal/resolve"
)

var warmCheck bool

var warmCmd = &cobra.Command{
	Use:   "warm",
	Short: "Build every suffix trie and optionally check hierarchy consistency",
	Long:  "Builds the state, district and place tries from the store, reporting slug counts and build time. With --check, also lists places whose state disagrees with their district's state and fails if any are found.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx, "cli")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		start := time.Now()
		cache := resolve.NewCache(st)
		if err := cache.Warm(ctx); err != nil {
			return eris.Wrap(err, "warm tries")
		}

		counts := map[location.Kind]int{}
		for _, k := range location.Kinds {
			t, err := cache.Trie(ctx, k)
			if err != nil {
				return eris.Wrapf(err, "%s trie", k)
			}
			counts[k] = t.Len()
		}
		zap.L().Info("tries warmed",
			zap.Int("states", counts[location.KindState]),
			zap.Int("districts", counts[location.KindDistrict]),
			zap.Int("places", counts[location.KindPlace]),
			zap.Duration("duration", time.Since(start)),
		)

		out := struct {
			Slugs           map[location.Kind]int    `json:"slugs"`
			Inconsistencies []location.Inconsistency `json:"inconsistencies,omitempty"`
		}{Slugs: counts}

		if warmCheck {
			bad, err := st.CheckConsistency(ctx)
			if err != nil {
				return eris.Wrap(err, "consistency check")
			}
			out.Inconsistencies = bad
			if err := printJSON(cmd, out); err != nil {
				return err
			}
			if len(bad) > 0 {
				return eris.Errorf("%d places disagree with their district's state", len(bad))
			}
			return nil
		}
		return printJSON(cmd, out)
	},
}

func init() {
	warmCmd.Flags().BoolVar(&warmCheck, "check", false, "verify every place's state matches its district's state")
	rootCmd.AddCommand(warmCmd)
}
