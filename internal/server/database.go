package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/receipts-extractor/internal/common"
	repo "github.com/joseph-ayodele/receipts-extractor/internal/repository"
)

// OpenStore opens the receipt store selected by cfg.Driver and returns it
// with a health probe for it.
func OpenStore(ctx context.Context, cfg common.StoreConfig, logger *slog.Logger) (repo.ReceiptStore, HealthFunc, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("store.open", "driver", cfg.Driver)
	switch cfg.Driver {
	case "postgres":
		db, pool, err := repo.OpenPostgres(ctx, repo.Config{
			DSN:             cfg.DSN,
			MaxConns:        cfg.MaxConns,
			MinConns:        cfg.MinConns,
			MaxConnLifetime: cfg.MaxConnLifetime,
			MaxConnIdleTime: 5 * time.Minute,
			DialTimeout:     cfg.DialTimeout,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		store, err := repo.NewSQLStore(ctx, db, repo.DialectPostgres, logger)
		if err != nil {
			db.Close()
			pool.Close()
			return nil, nil, err
		}
		store.OnClose(pool.Close)
		probe := func(ctx context.Context) error {
			return repo.HealthCheck(ctx, pool, 2*time.Second, logger)
		}
		return store, probe, nil
	case "sqlite":
		db, err := repo.OpenSQLite(cfg.SQLitePath, logger)
		if err != nil {
			return nil, nil, err
		}
		store, err := repo.NewSQLStore(ctx, db, repo.DialectSQLite, logger)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return store, db.PingContext, nil
	case "mongo":
		store, err := repo.OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Ping, nil
	default:
		return nil, nil, common.NewValidationError(fmt.Sprintf("unknown store driver %q", cfg.Driver))
	}
}
