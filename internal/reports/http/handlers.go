package reporthttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/perfdash/perfdash/internal/comparison"
	"github.com/perfdash/perfdash/internal/logistics"
	"github.com/perfdash/perfdash/internal/platform/httpx"
	"github.com/perfdash/perfdash/internal/reports"
)

// ReportService defines the report contract used by the handler.
type ReportService interface {
	Summary(ctx context.Context, filter comparison.Filter, mode comparison.Mode) (reports.Summary, error)
	Trend(ctx context.Context, filter comparison.Filter) (reports.Trend, error)
	ByKPI(ctx context.Context, filter comparison.Filter, mode comparison.Mode) ([]comparison.EntityComparison, error)
	ByDistributor(ctx context.Context, filter comparison.Filter, mode comparison.Mode) ([]comparison.EntityComparison, error)
	Delays(ctx context.Context, filter reports.DelayFilter) ([]logistics.Record, error)
	OnTime(ctx context.Context, filter reports.DelayFilter) (logistics.Summary, error)
	FilterOptions(ctx context.Context) (reports.FilterOptions, error)
}

// Handler serves the dashboard report endpoints.
type Handler struct {
	logger    *slog.Logger
	service   ReportService
	validator *validator.Validate
}

// NewHandler constructs the report HTTP handler.
func NewHandler(logger *slog.Logger, service ReportService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}
}

type filterParams struct {
	Segment  string `validate:"omitempty,max=128"`
	Group    string `validate:"omitempty,max=128"`
	Position string `validate:"omitempty,max=128"`
	Route    string `validate:"omitempty,max=128"`
	KPI      string `validate:"omitempty,max=128"`
	Region   string `validate:"omitempty,max=128"`
	Status   string `validate:"omitempty,max=64"`
	Month    int    `validate:"omitempty,min=1,max=12"`
	Year     int    `validate:"omitempty,min=1,max=9999"`
}

func textParam(q url.Values, name string) string {
	v := strings.TrimSpace(q.Get(name))
	if strings.EqualFold(v, "all") {
		return ""
	}
	return v
}

func intParam(q url.Values, name string) int {
	v, err := strconv.Atoi(textParam(q, name))
	if err != nil {
		return 0
	}
	return v
}

// parseParams reads the optional filters. Values that fail validation are dropped.
func (h *Handler) parseParams(r *http.Request) filterParams {
	q := r.URL.Query()
	p := filterParams{
		Segment:  textParam(q, "segment"),
		Group:    textParam(q, "group"),
		Position: textParam(q, "position"),
		Route:    textParam(q, "route"),
		KPI:      textParam(q, "kpi"),
		Region:   textParam(q, "region"),
		Status:   textParam(q, "status"),
		Month:    intParam(q, "month"),
		Year:     intParam(q, "year"),
	}
	err := h.validator.Struct(p)
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return p
	}
	for _, fieldErr := range fieldErrs {
		h.logger.DebugContext(r.Context(), "dropping invalid filter", slog.String("field", fieldErr.Field()), slog.String("tag", fieldErr.Tag()))
		switch fieldErr.StructField() {
		case "Segment":
			p.Segment = ""
		case "Group":
			p.Group = ""
		case "Position":
			p.Position = ""
		case "Route":
			p.Route = ""
		case "KPI":
			p.KPI = ""
		case "Region":
			p.Region = ""
		case "Status":
			p.Status = ""
		case "Month":
			p.Month = 0
		case "Year":
			p.Year = 0
		}
	}
	return p
}

func (p filterParams) filter() comparison.Filter {
	return comparison.Filter{
		Segment:  p.Segment,
		Group:    p.Group,
		Position: p.Position,
		Route:    p.Route,
		KPI:      p.KPI,
		Region:   p.Region,
		Month:    p.Month,
		Year:     p.Year,
	}
}

func (h *Handler) parseFilter(r *http.Request) comparison.Filter {
	return h.parseParams(r).filter()
}

func (h *Handler) parseDelayFilter(r *http.Request) reports.DelayFilter {
	p := h.parseParams(r)
	return reports.DelayFilter{Filter: p.filter(), Status: p.Status}
}

func parseMode(r *http.Request) comparison.Mode {
	return comparison.ParseMode(r.URL.Query().Get("mode"))
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, report string, data any, err error) {
	if err != nil {
		h.logger.ErrorContext(r.Context(), "report failed", slog.String("report", report), slog.Any("error", err))
		httpx.Fail(w, err)
		return
	}
	httpx.OK(w, data)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.Summary(r.Context(), h.parseFilter(r), parseMode(r))
	h.respond(w, r, "summary", data, err)
}

func (h *Handler) handleTrend(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.Trend(r.Context(), h.parseFilter(r))
	h.respond(w, r, "trend", data, err)
}

func (h *Handler) handleByKPI(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.ByKPI(r.Context(), h.parseFilter(r), parseMode(r))
	h.respond(w, r, "by-kpi", data, err)
}

func (h *Handler) handleByDistributor(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.ByDistributor(r.Context(), h.parseFilter(r), parseMode(r))
	h.respond(w, r, "by-distributor", data, err)
}

func (h *Handler) handleDelays(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.Delays(r.Context(), h.parseDelayFilter(r))
	h.respond(w, r, "logistics-delays", data, err)
}

func (h *Handler) handleOnTime(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.OnTime(r.Context(), h.parseDelayFilter(r))
	h.respond(w, r, "logistics-on-time", data, err)
}

func (h *Handler) handleFilters(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.FilterOptions(r.Context())
	h.respond(w, r, "filters", data, err)
}

func (h *Handler) handleMethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	httpx.Fail(w, httpx.ErrMethodNotAllowed)
}
