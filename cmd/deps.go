package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/afero"

	"github.com/frahmantamala/issue-tracker/internal"
	"github.com/frahmantamala/issue-tracker/internal/auth"
	"github.com/frahmantamala/issue-tracker/internal/storage"
	"github.com/frahmantamala/issue-tracker/internal/storage/postgres"
	"github.com/frahmantamala/issue-tracker/internal/storage/redis"
	"github.com/frahmantamala/issue-tracker/internal/store"
	"github.com/frahmantamala/issue-tracker/pkg/logger"
)

func initLogger(cfg *internal.Config) *slog.Logger {
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	return logger.LoggerWrapper()
}

// openStorage builds the slot backend named by cfg.Driver. SQL backends get
// their table through AutoMigrate when migrations have not been run.
func openStorage(ctx context.Context, cfg internal.StorageConfig) (storage.KV, error) {
	switch cfg.Driver {
	case internal.StorageMemory:
		return storage.NewMemory(), nil

	case internal.StorageFile:
		return storage.NewFile(afero.NewOsFs(), cfg.Dir)

	case internal.StorageSQLite, internal.StoragePostgres:
		db, err := postgres.Open(postgres.Options{
			Driver:       cfg.Driver,
			DSN:          cfg.DSN,
			MaxOpenConns: cfg.MaxOpenConns,
			MaxIdleConns: cfg.MaxIdleConns,
			Silent:       true,
		})
		if err != nil {
			return nil, err
		}
		if err := postgres.EnsureSchema(db); err != nil {
			return nil, fmt.Errorf("ensure slot schema: %w", err)
		}
		return postgres.NewSlotRepository(db), nil

	case internal.StorageRedis:
		client, err := redis.Connect(ctx, cfg.Redis.Addr)
		if err != nil {
			return nil, err
		}
		kv := redis.NewSlotStore(client, cfg.Redis.Prefix)
		if err := kv.Ping(ctx); err != nil {
			_ = kv.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		return kv, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}

// openStore loads the store from the configured backend. The caller closes kv.
func openStore(ctx context.Context, cfg *internal.Config, lg *slog.Logger, opts ...store.Option) (*store.Store, storage.KV, error) {
	kv, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		return nil, nil, fmt.Errorf("open storage: %w", err)
	}
	lg.Info("storage ready", "driver", cfg.Storage.Driver)

	opts = append([]store.Option{
		store.WithTokenIssuer(auth.NewJWTTokenIssuer(cfg.Security.TokenSecret, cfg.Security.TokenTTL)),
	}, opts...)

	s, err := store.New(ctx, kv, auth.NewRegistryProvider(auth.KnownUsers()), lg, opts...)
	if err != nil {
		_ = storage.Close(kv)
		return nil, nil, err
	}
	return s, kv, nil
}
