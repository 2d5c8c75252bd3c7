package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/perfdash/perfdash/internal/logistics"
	"github.com/perfdash/perfdash/internal/platform/db"
	"github.com/perfdash/perfdash/internal/reports"
	"github.com/perfdash/perfdash/internal/warehouse"
)

// OpenWarehouse connects to the configured warehouse and returns an instrumented Querier.
// The returned func releases the connection pool.
func OpenWarehouse(ctx context.Context, cfg *Config, registerer prometheus.Registerer) (warehouse.Querier, func(), error) {
	var (
		q       warehouse.Querier
		closeFn func()
	)
	switch cfg.Dialect() {
	case warehouse.DialectMySQL:
		sqlDB, err := warehouse.OpenMySQL(cfg.WarehouseDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			_ = sqlDB.Close()
			return nil, nil, fmt.Errorf("warehouse: ping mysql: %w", err)
		}
		q = warehouse.NewSQLQuerier(sqlDB)
		closeFn = func() { _ = sqlDB.Close() }
	default:
		pool, err := db.New(ctx, cfg.WarehouseDSN, db.PoolConfig{
			MaxConns:         int32(cfg.TrendConcurrency * 2),
			StatementTimeout: cfg.AppRequestTimeout,
			ApplicationName:  "perfdash",
		})
		if err != nil {
			return nil, nil, err
		}
		q = warehouse.NewPGQuerier(pool)
		closeFn = pool.Close
	}
	return warehouse.Instrument(q, warehouse.NewQueryMetrics(registerer)), closeFn, nil
}

// NewReportService assembles the report service on top of a warehouse Querier.
func NewReportService(cfg *Config, q warehouse.Querier, redisClient *redis.Client, logger *slog.Logger) (*reports.Service, *reports.Cache, error) {
	repo, err := reports.NewRepository(q, cfg.Dialect(), reports.Tables{
		KPI:       cfg.WarehouseKPITable,
		Logistics: cfg.WarehouseLogisticsTable,
	})
	if err != nil {
		return nil, nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, err
	}
	var cache *reports.Cache
	if redisClient != nil {
		cache = reports.NewCache(redisClient, cfg.FilterCacheTTL)
	}
	estimator := logistics.NewEstimator(logistics.EstimatorConfig{
		TargetBusinessDays:         cfg.DelayTargetBusinessDays,
		CalendarDaysPerBusinessDay: cfg.DelayCalendarFactor,
		Location:                   loc,
	})
	svc := reports.NewService(repo, cache, estimator, logger, reports.ServiceConfig{
		PeriodWindow:     cfg.PeriodWindow,
		TrendConcurrency: cfg.TrendConcurrency,
	})
	return svc, cache, nil
}
