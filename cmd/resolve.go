package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/locality/internal/location"
	"github.com/sells-group/locality/internal/resolve"
)

var resolveKind string

var resolveCmd = &cobra.Command{
	Use:   "resolve <slug>",
	Short: "Resolve which state, district or place a slug ends with",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var hint location.Kind
		if resolveKind != "" {
			k, ok := location.ParseKind(resolveKind)
			if !ok {
				return eris.Errorf("invalid --kind %q: want state, district or place", resolveKind)
			}
			hint = k
		}

		st, err := openStore(ctx, "cli")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		m := resolve.NewMatcher(resolve.NewCache(st), st)
		res, err := m.Resolve(ctx, args[0], hint)
		if err != nil {
			return eris.Wrap(err, "resolve")
		}
		return printJSON(cmd, res)
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveKind, "kind", "", "restrict to one kind: state, district or place")
	rootCmd.AddCommand(resolveCmd)
}
