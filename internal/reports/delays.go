package reports

import (
	"context"

	"github.com/perfdash/perfdash/internal/logistics"
)

// Delays measures every logistics request matching filter.
func (s *Service) Delays(ctx context.Context, filter DelayFilter) ([]logistics.Record, error) {
	requests, err := s.store.ListDelayRequests(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.estimator.Measure(requests), nil
}

// OnTime summarises on-time performance of the requests matching filter.
func (s *Service) OnTime(ctx context.Context, filter DelayFilter) (logistics.Summary, error) {
	records, err := s.Delays(ctx, filter)
	if err != nil {
		return logistics.Summary{}, err
	}
	return s.estimator.Summarize(records), nil
}
