// Package stats builds the admin dashboard summary.
package stats

import (
	"context"
	"time"

	stderrors "estate-admin/internal/common/errors"
	"estate-admin/internal/common/logger"
	"estate-admin/internal/common/metrics"
	"estate-admin/internal/models"
	"estate-admin/internal/services"
	"estate-admin/internal/store"

	"golang.org/x/sync/errgroup"
)

const cacheKey = "dashboard"

// Cache is satisfied by database.JSONCache.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

var openReportStatuses = []string{string(models.ReportNew), string(models.ReportInvestigating)}

type Service struct {
	store  *store.Store
	cache  Cache
	ttl    time.Duration
	logger logger.Logger
}

// NewService returns a stats aggregator. cache may be nil and ttl <= 0
// disables caching.
func NewService(st *store.Store, cache Cache, ttl time.Duration, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Service{store: st, cache: cache, ttl: ttl, logger: log}
}

// Dashboard returns the summary, from cache when fresh.
func (s *Service) Dashboard(ctx context.Context, actor models.Actor) (*models.DashboardStats, error) {
	if err := services.RequireAdmin(actor); err != nil {
		return nil, err
	}

	if s.cacheEnabled() {
		var cached models.DashboardStats
		hit, err := s.cache.Get(ctx, cacheKey, &cached)
		if err != nil {
			s.logger.Warn("stats cache read failed", map[string]interface{}{"error": err.Error()})
		}
		if hit {
			metrics.StatsCacheLookups.WithLabelValues("hit").Inc()
			return &cached, nil
		}
		metrics.StatsCacheLookups.WithLabelValues("miss").Inc()
	}

	out, err := s.compute(ctx)
	if err != nil {
		return nil, err
	}

	if s.cacheEnabled() {
		if err := s.cache.Set(ctx, cacheKey, out, s.ttl); err != nil {
			s.logger.Warn("stats cache write failed", map[string]interface{}{"error": err.Error()})
		}
	}
	return out, nil
}

func (s *Service) cacheEnabled() bool {
	return s.cache != nil && s.ttl > 0
}

// compute runs every count concurrently. The first failure cancels the rest.
func (s *Service) compute(ctx context.Context) (*models.DashboardStats, error) {
	out := &models.DashboardStats{GeneratedAt: s.store.Now()}
	pending := string(models.VerificationPending)
	since := out.GeneratedAt.Add(-7 * 24 * time.Hour)

	g, gctx := errgroup.WithContext(ctx)
	count := func(dst *int, fn func(context.Context) (int, error)) {
		g.Go(func() error {
			n, err := fn(gctx)
			*dst = n
			return err
		})
	}

	count(&out.PendingVerifications, func(c context.Context) (int, error) {
		return s.store.CountVerificationsByStatus(c, pending)
	})
	count(&out.PendingAgents, func(c context.Context) (int, error) {
		return s.store.CountAgentsByStatus(c, string(models.EntityPending))
	})
	count(&out.PendingProperties, func(c context.Context) (int, error) {
		return s.store.CountPropertiesByStatus(c, string(models.EntityPending))
	})
	count(&out.OpenReports, func(c context.Context) (int, error) {
		return s.store.CountReportsIn(c, openReportStatuses)
	})
	count(&out.NewLeadsLast7Days, func(c context.Context) (int, error) {
		return s.store.CountLeadsSince(c, since)
	})
	g.Go(func() error {
		m, err := s.store.CountUsersByRole(gctx)
		out.UsersByRole = m
		return err
	})
	g.Go(func() error {
		m, err := s.store.CountLeadsByStatus(gctx)
		out.LeadsByStatus = m
		return err
	})

	if err := g.Wait(); err != nil {
		if _, ok := stderrors.AsStandard(err); ok {
			return nil, err
		}
		return nil, stderrors.NewDatabaseQueryError("dashboard_stats", err)
	}
	return out, nil
}
