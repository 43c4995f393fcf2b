package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/locality/internal/api"
	"github.com/sells-group/locality/internal/nearby"
	"github.com/sells-group/locality/internal/render"
	"github.com/sells-group/locality/internal/resolve"
	"github.com/sells-group/locality/internal/respcache"
)

var (
	servePort   int
	serveNoWarm bool
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the location API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}

		st, err := openStore(ctx, "serve")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		cache, err := respcache.New(cfg.Cache)
		if err != nil {
			return err
		}
		defer cache.Close() //nolint:errcheck
		if err := pingCache(ctx, cache); err != nil {
			zap.L().Warn("response cache unreachable, serving uncached until it recovers", zap.Error(err))
		}

		var templates render.Set
		if cfg.Render.TemplatesPath != "" {
			if templates, err = render.LoadTemplates(cfg.Render.TemplatesPath); err != nil {
				return err
			}
			zap.L().Info("loaded render templates", zap.Int("count", len(templates)))
		}

		tries := resolve.NewCache(st)
		if !serveNoWarm {
			if err := tries.Warm(ctx); err != nil {
				return eris.Wrap(err, "warm tries")
			}
		}

		srv := api.NewServer(cfg.Server, api.Deps{
			Store:     st,
			Matcher:   resolve.NewMatcher(tries, st),
			Searcher:  nearby.NewSearcher(st, nearby.WithDelta(cfg.Nearby.Delta)),
			Cache:     cache,
			Templates: templates,
		})

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(sctx); err != nil {
				zap.L().Error("server shutdown", zap.Error(err))
			}
		}()

		zap.L().Info("starting server",
			zap.String("addr", srv.Addr()),
			zap.String("store", cfg.Store.Driver),
			zap.String("cache", cfg.Cache.Driver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// pingCache checks connectivity for caches backed by a remote server.
func pingCache(ctx context.Context, c respcache.Cache) error {
	p, ok := c.(interface{ Ping(context.Context) error })
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return p.Ping(ctx)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().BoolVar(&serveNoWarm, "no-warm", false, "build tries on first request instead of at startup")
	rootCmd.AddCommand(serveCmd)
}
