// cmd/estate-admin/app.go
package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"estate-admin/internal/common/config"
	"estate-admin/internal/common/database"
	"estate-admin/internal/common/logger"
	"estate-admin/internal/notify"
	"estate-admin/internal/services/activity"
	"estate-admin/internal/services/leads"
	"estate-admin/internal/services/messages"
	"estate-admin/internal/services/reports"
	"estate-admin/internal/services/stats"
	"estate-admin/internal/services/users"
	"estate-admin/internal/services/verification"
	"estate-admin/internal/store"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// app holds the connections and services shared by the subcommands.
type app struct {
	cfg *config.Config
	zap *zap.Logger
	log logger.Logger

	pg    *database.PostgresClient
	redis *database.RedisClient
	es    *database.ElasticsearchClient

	store    *store.Store
	activity *activity.Log
	notifier *notify.Service

	closers []func() error
}

func newApp(cfg *config.Config) *app {
	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	return &app{cfg: cfg, zap: zapLog, log: logger.NewZapAdapter(zapLog)}
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.zap.Warn("close failed", zap.Error(err))
		}
	}
	_ = a.zap.Sync()
}

func (a *app) connectPostgres(ctx context.Context, attempts int) error {
	err := retryWithBackoff(func() error {
		var err error
		a.pg, err = database.NewPostgres(a.cfg.Database.Postgres)
		if err != nil {
			return err
		}
		if err := a.pg.Ping(ctx); err != nil {
			a.pg.Close()
			return err
		}
		return nil
	}, attempts, 2*time.Second, a.zap, "PostgreSQL connection")
	if err != nil {
		return err
	}
	a.closers = append(a.closers, a.pg.Close)
	a.store = store.New(a.pg.DB)
	a.zap.Info("PostgreSQL connected successfully")
	return nil
}

func (a *app) connectRedis(ctx context.Context, attempts int) error {
	err := retryWithBackoff(func() error {
		var err error
		a.redis, err = database.NewRedis(a.cfg.Database.Redis)
		if err != nil {
			return err
		}
		if err := a.redis.Ping(ctx); err != nil {
			a.redis.Close()
			return err
		}
		return nil
	}, attempts, 2*time.Second, a.zap, "Redis connection")
	if err != nil {
		a.redis = nil
		return err
	}
	a.closers = append(a.closers, a.redis.Close)
	a.zap.Info("Redis connected successfully")
	return nil
}

// connectSearch is a no-op when no cluster is configured; the activity log
// then reads from Postgres.
func (a *app) connectSearch(ctx context.Context, attempts int) error {
	if !a.cfg.Database.Elasticsearch.Enabled() {
		a.zap.Info("Elasticsearch not configured, activity search uses PostgreSQL")
		return nil
	}
	err := retryWithBackoff(func() error {
		var err error
		a.es, err = database.NewElasticsearch(a.cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return a.es.Ping(ctx)
	}, attempts, 2*time.Second, a.zap, "Elasticsearch connection")
	if err != nil {
		return err
	}
	a.zap.Info("Elasticsearch connected successfully")
	return nil
}

// initCore builds the activity log and notifier. Requires Postgres.
func (a *app) initCore(ctx context.Context) error {
	var index activity.Index
	if a.es != nil {
		index = a.es
	}
	a.activity = activity.New(a.store, index, a.cfg.Database.Elasticsearch.ActivityIndex, a.log)

	n, err := notify.NewFromConfig(ctx, a.cfg, a.log)
	if err != nil {
		return fmt.Errorf("notifications: %w", err)
	}
	a.notifier = n
	return nil
}

func (a *app) verificationService() *verification.Service {
	return verification.NewService(a.store, a.notifier, a.activity,
		verification.OptionsFromConfig(a.cfg.Workflow), a.log)
}

type domainServices struct {
	verifications *verification.Service
	reports       *reports.Service
	users         *users.Service
	stats         *stats.Service
	leads         *leads.Service
	messages      *messages.Service
}

// services builds every domain service. Requires Postgres, Redis and initCore.
func (a *app) services() domainServices {
	strict := a.cfg.Workflow.StrictTransitions
	return domainServices{
		verifications: a.verificationService(),
		reports:       reports.NewService(a.store, a.activity, strict, a.log),
		users:         users.NewService(a.store, a.activity, a.log),
		stats: stats.NewService(a.store, database.NewJSONCache(a.redis.Client, "stats:"),
			time.Duration(a.cfg.Stats.CacheTTL)*time.Second, a.log),
		leads:    leads.NewService(a.store, a.activity, strict, a.log),
		messages: messages.NewService(a.notifier, a.activity, a.log),
	}
}
