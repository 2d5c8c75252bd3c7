package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/perfdash/perfdash/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// FilterWarmer is the report service capability the warmup job drives.
type FilterWarmer interface {
	WarmFilterOptions(ctx context.Context) error
}

// VersionReader reports the cache version after a warmup.
type VersionReader interface {
	Version(ctx context.Context) (int64, error)
}

// FilterWarmupJob bumps the filter cache version and reloads the options.
type FilterWarmupJob struct {
	Reports FilterWarmer
	Cache   VersionReader
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	Timeout time.Duration
}

// NewFilterWarmupJob wires dependencies for the warmup handler.
func NewFilterWarmupJob(reports FilterWarmer, cache VersionReader, logger *slog.Logger, metrics *jobmetrics.Metrics) *FilterWarmupJob {
	return &FilterWarmupJob{
		Reports: reports,
		Cache:   cache,
		Logger:  logger,
		Metrics: metrics,
		Timeout: time.Minute,
	}
}

// Handle processes filter warmup tasks.
func (j *FilterWarmupJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Reports == nil {
		return errors.New("filter warmup: handler not configured")
	}
	var payload FilterWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("filter warmup: decode payload: %v: %w", err, asynq.SkipRetry)
	}

	tracker := j.metrics().Track(TaskFilterWarmup)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("reason", payload.Reason))
	logger.Info("starting filter warmup")
	start := time.Now()

	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}
	if err := j.Reports.WarmFilterOptions(ctx); err != nil {
		logger.Error("warm filter options", slog.Any("error", err))
		return err
	}
	if j.Cache != nil {
		if ver, err := j.Cache.Version(ctx); err == nil {
			j.metrics().SetCacheVersion(ver)
		} else {
			logger.Warn("read cache version", slog.Any("error", err))
		}
	}

	logger.Info("completed filter warmup", slog.Duration("duration", time.Since(start)))
	return nil
}

func (j *FilterWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskFilterWarmup))
	}
	return slog.Default().With(slog.String("job", TaskFilterWarmup))
}

func (j *FilterWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
