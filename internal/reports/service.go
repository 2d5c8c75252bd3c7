// Package reports assembles the period-over-period dashboard reports.
package reports

import (
	"context"
	"log/slog"

	"github.com/perfdash/perfdash/internal/comparison"
	"github.com/perfdash/perfdash/internal/logistics"
)

// Store is the warehouse access the report assemblers depend on.
type Store interface {
	ListPeriods(ctx context.Context, filter comparison.Filter, upTo *comparison.PeriodKey, limit int) ([]comparison.PeriodKey, error)
	Aggregate(ctx context.Context, filter comparison.Filter, period comparison.PeriodKey) (comparison.Snapshot, error)
	AggregateBy(ctx context.Context, filter comparison.Filter, period comparison.PeriodKey, dim Dimension) ([]comparison.EntitySnapshot, error)
	ListDelayRequests(ctx context.Context, filter DelayFilter) ([]logistics.Request, error)
	DistinctValues(ctx context.Context, dim Dimension) ([]string, error)
}

const (
	defaultPeriodWindow     = 10
	defaultTrendConcurrency = 4
)

// ServiceConfig bounds the work a single report may issue.
type ServiceConfig struct {
	PeriodWindow     int
	TrendConcurrency int
}

// Service coordinates report queries with the cache layer.
type Service struct {
	store     Store
	cache     *Cache
	estimator *logistics.Estimator
	logger    *slog.Logger
	cfg       ServiceConfig
}

// NewService wires a Store with its collaborators. Cache may be nil.
func NewService(store Store, cache *Cache, estimator *logistics.Estimator, logger *slog.Logger, cfg ServiceConfig) *Service {
	if estimator == nil {
		estimator = logistics.NewEstimator(logistics.EstimatorConfig{})
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PeriodWindow <= 0 {
		cfg.PeriodWindow = defaultPeriodWindow
	}
	if cfg.TrendConcurrency <= 0 {
		cfg.TrendConcurrency = defaultTrendConcurrency
	}
	return &Service{store: store, cache: cache, estimator: estimator, logger: logger, cfg: cfg}
}

// ResolvePeriods determines the current and previous period for filter under mode. A pinned
// month and year lists every earlier period under the remaining predicates. A lone month or
// year stays a predicate on the listed periods.
func (s *Service) ResolvePeriods(ctx context.Context, filter comparison.Filter, mode comparison.Mode) (comparison.Resolution, error) {
	if !mode.Implemented() {
		s.logger.WarnContext(ctx, "comparison mode not implemented, using month-to-month", slog.String("mode", string(mode)))
	}
	var upTo *comparison.PeriodKey
	listFilter := filter
	if pinned, ok := filter.PinnedPeriod(); ok {
		upTo = &pinned
		listFilter = filter.WithoutPeriod()
	}
	periods, err := s.store.ListPeriods(ctx, listFilter, upTo, s.cfg.PeriodWindow)
	if err != nil {
		return comparison.Resolution{}, err
	}
	return comparison.ResolvePeriods(periods, upTo, mode), nil
}
