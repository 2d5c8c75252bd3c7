package warehouse

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// QueryMetrics holds the collectors describing warehouse round-trips.
type QueryMetrics struct {
	duration *prometheus.HistogramVec
	failures *prometheus.CounterVec
}

// NewQueryMetrics registers the warehouse collectors. A nil registerer uses the default one.
func NewQueryMetrics(registerer prometheus.Registerer) *QueryMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	m := &QueryMetrics{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "perfdash_warehouse_query_duration_seconds",
			Help:    "Duration of warehouse queries by statement name.",
			Buckets: prometheus.DefBuckets,
		}, []string{"query"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "perfdash_warehouse_query_failures_total",
			Help: "Number of failed warehouse queries by statement name.",
		}, []string{"query"}),
	}
	registerer.MustRegister(m.duration, m.failures)
	return m
}

// Instrument decorates next so that every query is timed and failures are counted.
func Instrument(next Querier, metrics *QueryMetrics) Querier {
	if metrics == nil {
		return next
	}
	return &instrumentedQuerier{next: next, metrics: metrics}
}

type instrumentedQuerier struct {
	next    Querier
	metrics *QueryMetrics
}

func (q *instrumentedQuerier) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	name := QueryName(ctx)
	start := time.Now()
	rows, err := q.next.Query(ctx, query, args...)
	q.metrics.duration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		q.metrics.failures.WithLabelValues(name).Inc()
	}
	return rows, err
}
