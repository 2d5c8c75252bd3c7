package reports

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/perfdash/perfdash/internal/comparison"
)

// TrendComparison is the movement between two consecutive periods.
type TrendComparison struct {
	From    comparison.PeriodKey `json:"from"`
	To      comparison.PeriodKey `json:"to"`
	Changes comparison.Changes   `json:"changes"`
}

// Trend lists every period oldest first with the comparison to its predecessor.
type Trend struct {
	Periods     []PeriodFigures   `json:"periods"`
	Comparisons []TrendComparison `json:"comparisons"`
}

// Trend aggregates each period matching filter. The month predicate is ignored; a year narrows
// the series to that year.
func (s *Service) Trend(ctx context.Context, filter comparison.Filter) (Trend, error) {
	scope := filter.WithoutMonth()
	listed, err := s.store.ListPeriods(ctx, scope, nil, 0)
	if err != nil {
		return Trend{}, err
	}
	periods := comparison.SortAscending(listed)

	snapshots := make([]comparison.Snapshot, len(periods))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.TrendConcurrency)
	for i, period := range periods {
		g.Go(func() error {
			snap, err := s.store.Aggregate(gctx, scope, period)
			if err != nil {
				return err
			}
			snapshots[i] = snap
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Trend{}, err
	}

	out := Trend{
		Periods:     make([]PeriodFigures, 0, len(periods)),
		Comparisons: make([]TrendComparison, 0, len(periods)),
	}
	for i, period := range periods {
		out.Periods = append(out.Periods, PeriodFigures{PeriodKey: period, Figures: snapshots[i].Figures()})
		if i == 0 {
			continue
		}
		out.Comparisons = append(out.Comparisons, TrendComparison{
			From:    periods[i-1],
			To:      period,
			Changes: comparison.Compare(snapshots[i], &snapshots[i-1]),
		})
	}
	return out, nil
}
