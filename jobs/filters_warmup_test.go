package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/perfdash/perfdash/internal/jobs"
)

type stubWarmer struct {
	err   error
	calls int
}

func (s *stubWarmer) WarmFilterOptions(context.Context) error {
	s.calls++
	return s.err
}

type stubVersion struct{ ver int64 }

func (s stubVersion) Version(context.Context) (int64, error) { return s.ver, nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFilterWarmupJobRecordsSuccess(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(registry)
	warmer := &stubWarmer{}
	job := NewFilterWarmupJob(warmer, stubVersion{ver: 7}, discardLogger(), metrics)

	task, err := NewFilterWarmupTask("")
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	assert.Equal(t, 1, warmer.calls)
	families, err := registry.Gather()
	require.NoError(t, err)
	var version float64
	for _, mf := range families {
		if mf.GetName() == "perfdash_filter_cache_version" {
			version = mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	assert.Equal(t, 7.0, version)
}

func TestFilterWarmupJobFailure(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(registry)
	boom := errors.New("warehouse down")
	job := NewFilterWarmupJob(&stubWarmer{err: boom}, nil, discardLogger(), metrics)

	task, err := NewFilterWarmupTask("manual")
	require.NoError(t, err)
	assert.ErrorIs(t, job.Handle(context.Background(), task), boom)

	count, err := testutil.GatherAndCount(registry, "perfdash_jobs_failures_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestFilterWarmupJobRejectsBadPayload(t *testing.T) {
	job := NewFilterWarmupJob(&stubWarmer{}, nil, discardLogger(), jobmetrics.NewMetrics(prometheus.NewRegistry()))
	err := job.Handle(context.Background(), asynq.NewTask(TaskFilterWarmup, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestWarmupTaskIDIsStablePerDay(t *testing.T) {
	morning := time.Date(2025, 3, 1, 1, 0, 0, 0, time.UTC)
	evening := time.Date(2025, 3, 1, 23, 0, 0, 0, time.UTC)
	next := time.Date(2025, 3, 2, 1, 0, 0, 0, time.UTC)

	assert.Equal(t, WarmupTaskID("manual", morning), WarmupTaskID("manual", evening))
	assert.NotEqual(t, WarmupTaskID("manual", morning), WarmupTaskID("manual", next))
	assert.NotEqual(t, WarmupTaskID("manual", morning), WarmupTaskID("deploy", morning))
}

func TestNewFilterWarmupTaskPayload(t *testing.T) {
	task, err := NewFilterWarmupTask("deploy")
	require.NoError(t, err)
	assert.Equal(t, TaskFilterWarmup, task.Type())

	var payload FilterWarmupPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, "deploy", payload.Reason)
}

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) { return s.info, s.err }

func TestJobsHealth(t *testing.T) {
	r := chi.NewRouter()
	r.Route("/jobs", NewHandler(stubInspector{info: &asynq.QueueInfo{Queue: "default", Pending: 3}}, discardLogger()).MountRoutes)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":{"queue":"default","pending":3,"active":0,"retry":0}}`, rec.Body.String())

	r = chi.NewRouter()
	r.Route("/jobs", NewHandler(stubInspector{err: errors.New("redis down")}, discardLogger()).MountRoutes)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
