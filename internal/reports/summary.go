package reports

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/perfdash/perfdash/internal/comparison"
)

// PeriodFigures is a period with its rounded measures.
type PeriodFigures struct {
	comparison.PeriodKey
	comparison.Figures
}

// Summary compares the current period against the previous one.
type Summary struct {
	CurrentPeriod  *PeriodFigures     `json:"currentPeriod"`
	PreviousPeriod *PeriodFigures     `json:"previousPeriod"`
	Changes        comparison.Changes `json:"changes"`
}

// Summary builds the headline comparison. Without a previous period every change is 0.
func (s *Service) Summary(ctx context.Context, filter comparison.Filter, mode comparison.Mode) (Summary, error) {
	res, err := s.ResolvePeriods(ctx, filter, mode)
	if err != nil {
		return Summary{}, err
	}
	if res.Current == nil {
		return Summary{}, nil
	}

	var current, previous comparison.Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		snap, err := s.store.Aggregate(gctx, filter, *res.Current)
		current = snap
		return err
	})
	if res.Previous != nil {
		g.Go(func() error {
			snap, err := s.store.Aggregate(gctx, filter, *res.Previous)
			previous = snap
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	out := Summary{
		CurrentPeriod: &PeriodFigures{PeriodKey: *res.Current, Figures: current.Figures()},
	}
	if res.Previous != nil {
		out.PreviousPeriod = &PeriodFigures{PeriodKey: *res.Previous, Figures: previous.Figures()}
		out.Changes = comparison.Compare(current, &previous)
	}
	return out, nil
}
