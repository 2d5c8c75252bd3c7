package reports

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/perfdash/perfdash/internal/comparison"
)

// FilterOptions lists the values the dashboard offers in its filter controls.
type FilterOptions struct {
	Segments  []string               `json:"segments"`
	Groups    []string               `json:"groups"`
	Positions []string               `json:"positions"`
	Routes    []string               `json:"routes"`
	KPIs      []string               `json:"kpis"`
	Regions   []string               `json:"regions"`
	Periods   []comparison.PeriodKey `json:"periods"`
}

func filterOptionsKey() []string {
	return []string{"perfdash", "filters"}
}

// FilterOptions returns the filter values, served from the cache when warm.
func (s *Service) FilterOptions(ctx context.Context) (FilterOptions, error) {
	key, err := s.cache.BuildKey(ctx, filterOptionsKey()...)
	if err != nil {
		return FilterOptions{}, fmt.Errorf("reports: filter cache key: %w", err)
	}
	var opts FilterOptions
	if err := s.cache.FetchJSON(ctx, key, &opts, func(ctx context.Context) (any, error) {
		return s.loadFilterOptions(ctx)
	}); err != nil {
		return FilterOptions{}, err
	}
	return opts, nil
}

// WarmFilterOptions invalidates cached filter values and loads them again.
func (s *Service) WarmFilterOptions(ctx context.Context) error {
	ver, err := s.cache.Bump(ctx)
	if err != nil {
		return fmt.Errorf("reports: bump filter cache: %w", err)
	}
	if _, err := s.FilterOptions(ctx); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "filter options warmed", slog.Int64("version", ver))
	return nil
}

func (s *Service) loadFilterOptions(ctx context.Context) (FilterOptions, error) {
	var opts FilterOptions
	targets := []struct {
		dim  Dimension
		dest *[]string
	}{
		{DimensionSegment, &opts.Segments},
		{DimensionGroup, &opts.Groups},
		{DimensionPosition, &opts.Positions},
		{DimensionRoute, &opts.Routes},
		{DimensionKPI, &opts.KPIs},
		{DimensionRegion, &opts.Regions},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, t := range targets {
		g.Go(func() error {
			values, err := s.store.DistinctValues(gctx, t.dim)
			if err != nil {
				return err
			}
			*t.dest = values
			return nil
		})
	}
	g.Go(func() error {
		periods, err := s.store.ListPeriods(gctx, comparison.Filter{}, nil, 0)
		if err != nil {
			return err
		}
		opts.Periods = comparison.SortDescending(periods)
		return nil
	})
	if err := g.Wait(); err != nil {
		return FilterOptions{}, err
	}
	for _, t := range targets {
		if *t.dest == nil {
			*t.dest = []string{}
		}
	}
	return opts, nil
}
