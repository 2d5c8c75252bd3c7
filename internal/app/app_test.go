package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perfdash/perfdash/internal/comparison"
	"github.com/perfdash/perfdash/internal/logistics"
	"github.com/perfdash/perfdash/internal/observability"
	"github.com/perfdash/perfdash/internal/reports"
	reporthttp "github.com/perfdash/perfdash/internal/reports/http"
	"github.com/perfdash/perfdash/internal/warehouse"
	"github.com/perfdash/perfdash/jobs"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("WAREHOUSE_DRIVER", "mariadb")
	t.Setenv("DELAY_CALENDAR_FACTOR", "1.5")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, warehouse.DialectMySQL, cfg.Dialect())
	assert.Equal(t, 10, cfg.PeriodWindow)
	assert.Equal(t, 4, cfg.TrendConcurrency)
	assert.Equal(t, 15, cfg.DelayTargetBusinessDays)
	assert.Equal(t, 1.5, cfg.DelayCalendarFactor)
	assert.Equal(t, 6*time.Hour, cfg.FilterCacheTTL)
	assert.Equal(t, ":9091", cfg.WorkerMetricsAddr)
	assert.False(t, cfg.IsProduction())
}

func TestConfigValidate(t *testing.T) {
	valid := Config{
		WarehouseDriver:         "postgres",
		WarehouseDSN:            "postgres://localhost/perfdash",
		WarehouseKPITable:       "mart.kpi_monthly",
		WarehouseLogisticsTable: "logistics_requests",
		PeriodWindow:            10,
		TrendConcurrency:        4,
		DelayTargetBusinessDays: 15,
		DelayCalendarFactor:     1.4,
		ReportTimezone:          "UTC",
	}
	require.NoError(t, valid.Validate())

	cases := map[string]func(*Config){
		"driver":   func(c *Config) { c.WarehouseDriver = "bigquery" },
		"dsn":      func(c *Config) { c.WarehouseDSN = "" },
		"table":    func(c *Config) { c.WarehouseKPITable = "kpi monthly" },
		"window":   func(c *Config) { c.PeriodWindow = 0 },
		"trend":    func(c *Config) { c.TrendConcurrency = -1 },
		"target":   func(c *Config) { c.DelayTargetBusinessDays = 0 },
		"factor":   func(c *Config) { c.DelayCalendarFactor = 0 },
		"timezone": func(c *Config) { c.ReportTimezone = "Mars/Olympus" },
	}
	for name, mutate := range cases {
		cfg := valid
		mutate(&cfg)
		assert.Error(t, cfg.Validate(), name)
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}

func TestInTestMode(t *testing.T) {
	t.Setenv(testModeEnv, "1")
	RefreshTestMode()
	assert.True(t, InTestMode())

	t.Setenv(testModeEnv, " true ")
	RefreshTestMode()
	assert.True(t, InTestMode())

	for _, v := range []string{"0", "", "yes-please"} {
		t.Setenv(testModeEnv, v)
		RefreshTestMode()
		assert.False(t, InTestMode(), v)
	}
}

type emptyStore struct{}

func (emptyStore) ListPeriods(context.Context, comparison.Filter, *comparison.PeriodKey, int) ([]comparison.PeriodKey, error) {
	return nil, nil
}

func (emptyStore) Aggregate(context.Context, comparison.Filter, comparison.PeriodKey) (comparison.Snapshot, error) {
	return comparison.Snapshot{}, nil
}

func (emptyStore) AggregateBy(context.Context, comparison.Filter, comparison.PeriodKey, reports.Dimension) ([]comparison.EntitySnapshot, error) {
	return nil, nil
}

func (emptyStore) ListDelayRequests(context.Context, reports.DelayFilter) ([]logistics.Request, error) {
	return nil, nil
}

func (emptyStore) DistinctValues(context.Context, reports.Dimension) ([]string, error) {
	return nil, nil
}

func newTestRouter(t *testing.T) (http.Handler, *observability.Metrics) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := reports.NewService(emptyStore{}, nil, nil, logger, reports.ServiceConfig{})
	metrics := observability.NewMetrics()
	router := NewRouter(RouterParams{
		Logger:        logger,
		Config:        &Config{AppEnv: "production", RateLimitPerMinute: 1000},
		ReportHandler: reporthttp.NewHandler(logger, svc),
		JobHandler:    jobs.NewHandler(nil, logger),
		Metrics:       metrics,
	})
	return router, metrics
}

func TestRouterServesReportsAndOps(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, path := range []string{"/healthz", "/api/reports/summary", "/api/reports/trend", "/jobs/health", "/metrics"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("X-Forwarded-Proto", "https")
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/reports/summary", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	router.ServeHTTP(rec, req)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))

	var env struct {
		Success bool `json:"success"`
		Data    struct {
			CurrentPeriod  any `json:"currentPeriod"`
			PreviousPeriod any `json:"previousPeriod"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.True(t, env.Success)
	assert.Nil(t, env.Data.CurrentPeriod)
	assert.Nil(t, env.Data.PreviousPeriod)
}

func TestRouterEnvelopesUnknownRoutes(t *testing.T) {
	router, metrics := newTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/reports/summary", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"method not allowed"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/nope", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	scrape := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.True(t, strings.Contains(scrape.Body.String(), `method="DELETE"`))
}
