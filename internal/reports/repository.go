package reports

import (
	"context"
	"fmt"
	"strings"

	"github.com/perfdash/perfdash/internal/comparison"
	"github.com/perfdash/perfdash/internal/logistics"
	"github.com/perfdash/perfdash/internal/warehouse"
)

// Dimension names a grouping column of the KPI fact table.
type Dimension string

const (
	DimensionSegment  Dimension = "segment"
	DimensionGroup    Dimension = "distributor"
	DimensionPosition Dimension = "position"
	DimensionRoute    Dimension = "route"
	DimensionKPI      Dimension = "kpi"
	DimensionRegion   Dimension = "region"
)

func (d Dimension) column() (string, error) {
	switch d {
	case DimensionSegment, DimensionGroup, DimensionPosition, DimensionRoute, DimensionKPI, DimensionRegion:
		return string(d), nil
	default:
		return "", fmt.Errorf("reports: unknown dimension %q", string(d))
	}
}

// Tables holds the warehouse table names the repository reads from.
type Tables struct {
	KPI       string
	Logistics string
}

// DelayFilter narrows the logistics requests. Segment, position, route and KPI do not apply.
type DelayFilter struct {
	comparison.Filter
	Status string
}

// Repository issues the report queries against the warehouse.
type Repository struct {
	q       warehouse.Querier
	dialect warehouse.Dialect
	tables  Tables
}

// NewRepository validates the table names and constructs a repository.
func NewRepository(q warehouse.Querier, dialect warehouse.Dialect, tables Tables) (*Repository, error) {
	for _, name := range []string{tables.KPI, tables.Logistics} {
		if !warehouse.ValidIdentifier(name) {
			return nil, fmt.Errorf("reports: invalid table name %q", name)
		}
	}
	return &Repository{q: q, dialect: dialect, tables: tables}, nil
}

type queryBuilder struct {
	dialect    warehouse.Dialect
	conditions []string
	args       []any
}

func (b *queryBuilder) bind(v any) string {
	b.args = append(b.args, v)
	return b.dialect.Placeholder(len(b.args))
}

func (b *queryBuilder) where(format string, values ...any) {
	placeholders := make([]any, 0, len(values))
	for _, v := range values {
		placeholders = append(placeholders, b.bind(v))
	}
	b.conditions = append(b.conditions, fmt.Sprintf(format, placeholders...))
}

func (b *queryBuilder) raw(cond string) {
	b.conditions = append(b.conditions, cond)
}

func (b *queryBuilder) clause() string {
	if len(b.conditions) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(b.conditions, " AND ")
}

func (r *Repository) kpiConditions(filter comparison.Filter) *queryBuilder {
	b := &queryBuilder{dialect: r.dialect}
	if filter.Segment != "" {
		b.where("segment = %s", filter.Segment)
	}
	if filter.Group != "" {
		b.where("distributor = %s", filter.Group)
	}
	if filter.Position != "" {
		b.where("position = %s", filter.Position)
	}
	if filter.Route != "" {
		b.where("route = %s", filter.Route)
	}
	if filter.KPI != "" {
		b.where("kpi = %s", filter.KPI)
	}
	if filter.Region != "" {
		b.where("region = %s", filter.Region)
	}
	if filter.Year > 0 {
		b.where("period_year = %s", filter.Year)
	}
	if filter.Month > 0 {
		b.where("period_month = %s", filter.Month)
	}
	return b
}

// ListPeriods returns the distinct periods holding data for filter, newest first. When upTo is
// set only periods on or before it are listed. A limit of 0 lists every period.
func (r *Repository) ListPeriods(ctx context.Context, filter comparison.Filter, upTo *comparison.PeriodKey, limit int) ([]comparison.PeriodKey, error) {
	b := r.kpiConditions(filter)
	if upTo != nil {
		b.where("(period_year < %s OR (period_year = %s AND period_month <= %s))", upTo.Year, upTo.Year, upTo.Month)
	}
	query := fmt.Sprintf(`
		SELECT DISTINCT period_year, period_month
		FROM %s
		%s
		ORDER BY period_year DESC, period_month DESC`, r.tables.KPI, b.clause())
	if limit > 0 {
		query += fmt.Sprintf("\n\t\tLIMIT %d", limit)
	}

	rows, err := r.q.Query(warehouse.WithQueryName(ctx, "list_periods"), query, b.args...)
	if err != nil {
		return nil, fmt.Errorf("reports: list periods: %w", err)
	}
	periods := make([]comparison.PeriodKey, 0, len(rows))
	for _, row := range rows {
		p := comparison.PeriodKey{Year: int(row.Int("period_year")), Month: int(row.Int("period_month"))}
		if p.Valid() {
			periods = append(periods, p)
		}
	}
	return periods, nil
}

const measureColumns = `COALESCE(SUM(achieved), 0) AS achieved,
		       COALESCE(SUM(target), 0) AS target,
		       COALESCE(SUM(points), 0) AS points,
		       COUNT(DISTINCT participant_id) AS participants`

func snapshotFromRow(row warehouse.Row) comparison.Snapshot {
	return comparison.Snapshot{
		Achieved:     row.Float("achieved"),
		Target:       row.Float("target"),
		Points:       row.Float("points"),
		Participants: row.Int("participants"),
	}
}

// periodFilter scopes filter to one resolved period. Resolved periods already satisfy any
// month or year predicate on filter.
func periodFilter(filter comparison.Filter, period comparison.PeriodKey) comparison.Filter {
	f := filter
	f.Year = period.Year
	f.Month = period.Month
	return f
}

// Aggregate sums the measures of one period.
func (r *Repository) Aggregate(ctx context.Context, filter comparison.Filter, period comparison.PeriodKey) (comparison.Snapshot, error) {
	b := r.kpiConditions(periodFilter(filter, period))
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		%s`, measureColumns, r.tables.KPI, b.clause())

	rows, err := r.q.Query(warehouse.WithQueryName(ctx, "aggregate"), query, b.args...)
	if err != nil {
		return comparison.Snapshot{}, fmt.Errorf("reports: aggregate %s: %w", period, err)
	}
	if len(rows) == 0 {
		return comparison.Snapshot{}, nil
	}
	return snapshotFromRow(rows[0]), nil
}

// AggregateBy sums the measures of one period per entity and ranks the entities.
func (r *Repository) AggregateBy(ctx context.Context, filter comparison.Filter, period comparison.PeriodKey, dim Dimension) ([]comparison.EntitySnapshot, error) {
	col, err := dim.column()
	if err != nil {
		return nil, err
	}
	b := r.kpiConditions(periodFilter(filter, period))
	b.raw(col + " IS NOT NULL")
	query := fmt.Sprintf(`
		SELECT %s AS name,
		       %s
		FROM %s
		%s
		GROUP BY %s
		ORDER BY achieved DESC, name`, col, measureColumns, r.tables.KPI, b.clause(), col)

	rows, err := r.q.Query(warehouse.WithQueryName(ctx, "aggregate_by_"+col), query, b.args...)
	if err != nil {
		return nil, fmt.Errorf("reports: aggregate %s by %s: %w", period, col, err)
	}
	entities := make([]comparison.EntitySnapshot, 0, len(rows))
	for _, row := range rows {
		entities = append(entities, comparison.EntitySnapshot{
			Name:     row.String("name"),
			Snapshot: snapshotFromRow(row),
		})
	}
	return comparison.RankEntities(entities), nil
}

// ListDelayRequests loads the logistics requests matching filter, newest first. Rows without a
// readable request timestamp are skipped.
func (r *Repository) ListDelayRequests(ctx context.Context, filter DelayFilter) ([]logistics.Request, error) {
	b := &queryBuilder{dialect: r.dialect}
	if filter.Group != "" {
		b.where("distributor = %s", filter.Group)
	}
	if filter.Region != "" {
		b.where("region = %s", filter.Region)
	}
	if filter.Status != "" {
		b.where("status = %s", filter.Status)
	}
	if filter.Year > 0 {
		b.where("EXTRACT(YEAR FROM requested_at) = %s", filter.Year)
	}
	if filter.Month > 0 {
		b.where("EXTRACT(MONTH FROM requested_at) = %s", filter.Month)
	}
	query := fmt.Sprintf(`
		SELECT request_id, distributor, region, status, requested_at, delivered_at
		FROM %s
		%s
		ORDER BY requested_at DESC`, r.tables.Logistics, b.clause())

	rows, err := r.q.Query(warehouse.WithQueryName(ctx, "list_delay_requests"), query, b.args...)
	if err != nil {
		return nil, fmt.Errorf("reports: list delay requests: %w", err)
	}
	requests := make([]logistics.Request, 0, len(rows))
	for _, row := range rows {
		requestedAt, ok := row.Time("requested_at")
		if !ok {
			continue
		}
		req := logistics.Request{
			ID:          row.String("request_id"),
			Distributor: row.String("distributor"),
			Region:      row.String("region"),
			Status:      row.String("status"),
			RequestedAt: requestedAt,
		}
		if deliveredAt, ok := row.Time("delivered_at"); ok {
			req.DeliveredAt = &deliveredAt
		}
		requests = append(requests, req)
	}
	return requests, nil
}

// DistinctValues lists the non-empty values of a dimension in ascending order.
func (r *Repository) DistinctValues(ctx context.Context, dim Dimension) ([]string, error) {
	col, err := dim.column()
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
		SELECT DISTINCT %s AS value
		FROM %s
		WHERE %s IS NOT NULL AND %s <> ''
		ORDER BY value`, col, r.tables.KPI, col, col)

	rows, err := r.q.Query(warehouse.WithQueryName(ctx, "distinct_"+col), query)
	if err != nil {
		return nil, fmt.Errorf("reports: distinct %s: %w", col, err)
	}
	values := make([]string, 0, len(rows))
	for _, row := range rows {
		values = append(values, row.String("value"))
	}
	return values, nil
}
