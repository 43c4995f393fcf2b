package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/locality/internal/config"
	"github.com/sells-group/locality/internal/db"
	"github.com/sells-group/locality/internal/location"
)

// initStore opens the configured store. The caller closes it.
func initStore(ctx context.Context, c config.StoreConfig) (location.ReadWriter, error) {
	switch c.Driver {
	case "sqlite":
		zap.L().Debug("opening sqlite store", zap.String("path", c.SQLitePath))
		return location.NewSQLite(c.SQLitePath)
	case "postgres":
		pool, err := db.ConnectRetry(ctx, c.DatabaseURL, db.PoolConfig{
			MaxConns: c.MaxConns,
			MinConns: c.MinConns,
		}, db.RetryConfig{Attempts: c.ConnectAttempts})
		if err != nil {
			return nil, eris.Wrap(err, "connect postgres")
		}
		return location.NewPostgresStore(pool), nil
	default:
		return nil, eris.Errorf("unsupported store driver: %s", c.Driver)
	}
}

// openStore validates cfg for mode and opens the store.
func openStore(ctx context.Context, mode string) (location.ReadWriter, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}
	return initStore(ctx, cfg.Store)
}
