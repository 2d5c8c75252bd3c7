// Package reporthttp exposes the dashboard reports over HTTP.
package reporthttp

import "github.com/go-chi/chi/v5"

// MountRoutes registers the report endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.Route("/api/reports", func(r chi.Router) {
		r.MethodNotAllowed(h.handleMethodNotAllowed)
		r.Get("/summary", h.handleSummary)
		r.Get("/trend", h.handleTrend)
		r.Get("/by-kpi", h.handleByKPI)
		r.Get("/by-distributor", h.handleByDistributor)
		r.Get("/logistics/delays", h.handleDelays)
		r.Get("/logistics/on-time", h.handleOnTime)
		r.Get("/filters", h.handleFilters)
	})
}
