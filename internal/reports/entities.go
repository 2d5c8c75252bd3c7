package reports

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/perfdash/perfdash/internal/comparison"
)

// ByKPI ranks KPIs in the current period against the previous one.
func (s *Service) ByKPI(ctx context.Context, filter comparison.Filter, mode comparison.Mode) ([]comparison.EntityComparison, error) {
	return s.entities(ctx, filter, mode, DimensionKPI)
}

// ByDistributor ranks distributors in the current period against the previous one.
func (s *Service) ByDistributor(ctx context.Context, filter comparison.Filter, mode comparison.Mode) ([]comparison.EntityComparison, error) {
	return s.entities(ctx, filter, mode, DimensionGroup)
}

func (s *Service) entities(ctx context.Context, filter comparison.Filter, mode comparison.Mode, dim Dimension) ([]comparison.EntityComparison, error) {
	res, err := s.ResolvePeriods(ctx, filter, mode)
	if err != nil {
		return nil, err
	}
	if res.Current == nil {
		return []comparison.EntityComparison{}, nil
	}

	var current, previous []comparison.EntitySnapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.store.AggregateBy(gctx, filter, *res.Current, dim)
		current = rows
		return err
	})
	if res.Previous != nil {
		g.Go(func() error {
			rows, err := s.store.AggregateBy(gctx, filter, *res.Previous, dim)
			previous = rows
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return comparison.CompareEntities(current, previous), nil
}
