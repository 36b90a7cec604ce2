package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"stealthcompany.com/clinic/internal/config"
	"stealthcompany.com/clinic/internal/couchbase"
	"stealthcompany.com/clinic/internal/dal"
	"stealthcompany.com/clinic/internal/docstore"
	"stealthcompany.com/clinic/internal/metrics"
	"stealthcompany.com/clinic/internal/redisstore"
	"stealthcompany.com/clinic/pkg/zerolog_config"
)

const schemaTimeout = time.Minute

// bootstrap loads the configuration and starts the logger and metrics.
func bootstrap(app string) (*config.Config, error) {
	config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	zerolog_config.SetAppPrefix(app)
	if err := zerolog_config.StartupWithEnv(cfg.ElasticsearchURL, "logs", cfg.LogLevel); err != nil {
		return nil, err
	}

	metrics.SetBusinessMetricsEnabled(cfg.EnableBusinessMetrics)
	return cfg, nil
}

// openStore connects the configured backend.
func openStore(ctx context.Context, cfg *config.Config) (docstore.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverRedis:
		return redisstore.New(ctx, redisstore.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	case config.DriverCouchbase:
		client, err := couchbase.NewClient(couchbase.Config{
			URL:      cfg.CouchbaseURL,
			Username: cfg.CouchbaseUsername,
			Password: cfg.CouchbasePassword,
			Bucket:   cfg.CouchbaseBucket,
			Scope:    cfg.CouchbaseScope,
		})
		if err != nil {
			return nil, err
		}

		schemaCtx, cancel := context.WithTimeout(ctx, schemaTimeout)
		defer cancel()
		if err := client.EnsureSchema(schemaCtx, dal.CollectionNames); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func closeStore(store docstore.Store) error {
	if err := store.Close(); err != nil {
		return err
	}
	log.Info().Msg("Database connection closed")
	return nil
}
