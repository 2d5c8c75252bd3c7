package warehouse

import (
	"context"
	"errors"
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowFloatCoercesDriverValues(t *testing.T) {
	row := Row{
		"string":  "123.5",
		"padded":  " 42 ",
		"bytes":   []byte("7.25"),
		"int64":   int64(9),
		"decimal": decimal.RequireFromString("10.75"),
		"numeric": pgtype.Numeric{Int: big.NewInt(12345), Exp: -2, Valid: true},
		"null":    nil,
		"bad":     "n/a",
		"nan":     math.NaN(),
		"inf":     math.Inf(1),
		"invalid": pgtype.Numeric{},
	}

	assert.Equal(t, 123.5, row.Float("string"))
	assert.Equal(t, 42.0, row.Float("padded"))
	assert.Equal(t, 7.25, row.Float("bytes"))
	assert.Equal(t, 9.0, row.Float("int64"))
	assert.Equal(t, 10.75, row.Float("decimal"))
	assert.InDelta(t, 123.45, row.Float("numeric"), 1e-9)
	assert.Zero(t, row.Float("null"))
	assert.Zero(t, row.Float("missing"))
	assert.Zero(t, row.Float("bad"))
	assert.Zero(t, row.Float("nan"))
	assert.Zero(t, row.Float("inf"))
	assert.Zero(t, row.Float("invalid"))
}

func TestRowIntRoundsToNearest(t *testing.T) {
	row := Row{"a": "3.6", "b": int32(4)}
	assert.Equal(t, int64(4), row.Int("a"))
	assert.Equal(t, int64(4), row.Int("b"))
}

func TestRowStringAndTime(t *testing.T) {
	ts := time.Date(2025, 1, 1, 8, 30, 0, 0, time.UTC)
	row := Row{
		"name":    []byte("North"),
		"ts":      ts,
		"text_ts": "2025-01-29 10:00:00",
		"date":    pgtype.Date{Time: ts, Valid: true},
		"nulldt":  pgtype.Timestamptz{},
	}

	assert.Equal(t, "North", row.String("name"))
	assert.Equal(t, "", row.String("missing"))

	got, ok := row.Time("ts")
	require.True(t, ok)
	assert.True(t, got.Equal(ts))

	got, ok = row.Time("text_ts")
	require.True(t, ok)
	assert.Equal(t, 29, got.Day())

	_, ok = row.Time("date")
	assert.True(t, ok)

	_, ok = row.Time("nulldt")
	assert.False(t, ok)
	_, ok = row.Time("missing")
	assert.False(t, ok)
}

func TestParseDialect(t *testing.T) {
	d, err := ParseDialect("MariaDB")
	require.NoError(t, err)
	assert.Equal(t, DialectMySQL, d)
	assert.Equal(t, "?", d.Placeholder(3))

	d, err = ParseDialect("")
	require.NoError(t, err)
	assert.Equal(t, "$3", d.Placeholder(3))

	_, err = ParseDialect("bigquery")
	assert.Error(t, err)
}

func TestValidIdentifier(t *testing.T) {
	assert.True(t, ValidIdentifier("kpi_results"))
	assert.True(t, ValidIdentifier("reporting.kpi_results"))
	assert.False(t, ValidIdentifier("kpi; DROP TABLE x"))
	assert.False(t, ValidIdentifier(""))
}

type fakeQuerier struct {
	err error
}

func (f fakeQuerier) Query(context.Context, string, ...any) ([]Row, error) {
	return []Row{{"n": 1}}, f.err
}

func TestInstrumentRecordsFailures(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewQueryMetrics(registry)

	ok := Instrument(fakeQuerier{}, metrics)
	_, err := ok.Query(WithQueryName(context.Background(), "summary"), "SELECT 1")
	require.NoError(t, err)

	failing := Instrument(fakeQuerier{err: errors.New("boom")}, metrics)
	_, err = failing.Query(context.Background(), "SELECT 1")
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.failures.WithLabelValues("unnamed")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.failures.WithLabelValues("summary")))
	assert.Equal(t, 2, testutil.CollectAndCount(metrics.duration))
}

func TestInstrumentWithoutMetricsReturnsNext(t *testing.T) {
	q := fakeQuerier{}
	assert.Equal(t, Querier(q), Instrument(q, nil))
}
