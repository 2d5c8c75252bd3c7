// Package logistics classifies logistics requests as on time or delayed.
package logistics

import (
	"sort"
	"time"

	"github.com/perfdash/perfdash/internal/comparison"
)

const (
	// DefaultTargetBusinessDays is the service level for delivering a request.
	DefaultTargetBusinessDays = 15
	// DefaultCalendarDaysPerBusinessDay approximates a 5-day week (7/5); holidays are ignored.
	DefaultCalendarDaysPerBusinessDay = 1.4
)

// EstimatorConfig tunes the delay approximation.
type EstimatorConfig struct {
	TargetBusinessDays         int
	CalendarDaysPerBusinessDay float64
	Location                   *time.Location
	Now                        func() time.Time
}

// Estimator converts request timestamps into business-day delays.
type Estimator struct {
	target int
	factor float64
	loc    *time.Location
	now    func() time.Time
}

// NewEstimator builds an Estimator, filling unset fields with the defaults.
func NewEstimator(cfg EstimatorConfig) *Estimator {
	e := &Estimator{
		target: cfg.TargetBusinessDays,
		factor: cfg.CalendarDaysPerBusinessDay,
		loc:    cfg.Location,
		now:    cfg.Now,
	}
	if e.target <= 0 {
		e.target = DefaultTargetBusinessDays
	}
	if !(e.factor > 0) {
		e.factor = DefaultCalendarDaysPerBusinessDay
	}
	if e.loc == nil {
		e.loc = time.UTC
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// Delay is the derived timing of one request.
type Delay struct {
	CalendarDays int  `json:"calendarDays"`
	BusinessDays int  `json:"businessDays"`
	DelayDays    int  `json:"delayDays"`
	OnTime       bool `json:"onTime"`
	// Provisional is set when the request is still open and was measured against now.
	Provisional bool `json:"provisional"`
}

// Estimate measures a request. A nil deliveredAt measures an open request up to now.
func (e *Estimator) Estimate(requestedAt time.Time, deliveredAt *time.Time) Delay {
	end := e.now()
	provisional := true
	if deliveredAt != nil && !deliveredAt.IsZero() {
		end = *deliveredAt
		provisional = false
	}
	calendar := CalendarDays(requestedAt, end, e.loc)
	business := int(comparison.RoundTo(float64(calendar)/e.factor, 0))
	delay := business - e.target
	return Delay{
		CalendarDays: calendar,
		BusinessDays: business,
		DelayDays:    delay,
		OnTime:       delay <= 0,
		Provisional:  provisional,
	}
}

// CalendarDays counts date boundaries between from and to in loc, ignoring the time of day.
func CalendarDays(from, to time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}
	fy, fm, fd := from.In(loc).Date()
	ty, tm, td := to.In(loc).Date()
	start := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	end := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start).Hours() / 24)
}

// Request is one logistics request as stored in the warehouse.
type Request struct {
	ID          string     `json:"id"`
	Distributor string     `json:"distributor"`
	Region      string     `json:"region"`
	Status      string     `json:"status"`
	RequestedAt time.Time  `json:"requestedAt"`
	DeliveredAt *time.Time `json:"deliveredAt"`
}

// Record is a Request together with its measured delay.
type Record struct {
	Request
	Delay
}

// Measure estimates every request, keeping the input order.
func (e *Estimator) Measure(requests []Request) []Record {
	records := make([]Record, 0, len(requests))
	for _, req := range requests {
		records = append(records, Record{Request: req, Delay: e.Estimate(req.RequestedAt, req.DeliveredAt)})
	}
	return records
}

// Summary aggregates on-time performance over a set of records.
type Summary struct {
	TargetBusinessDays int                `json:"targetBusinessDays"`
	Total              int                `json:"total"`
	OnTime             int                `json:"onTime"`
	Delayed            int                `json:"delayed"`
	Open               int                `json:"open"`
	OnTimePct          float64            `json:"onTimePct"`
	AvgBusinessDays    float64            `json:"avgBusinessDays"`
	ByDistributor      []DistributorDelay `json:"byDistributor"`
}

// DistributorDelay is the on-time breakdown for one distributor.
type DistributorDelay struct {
	Distributor     string  `json:"distributor"`
	Total           int     `json:"total"`
	OnTime          int     `json:"onTime"`
	Delayed         int     `json:"delayed"`
	OnTimePct       float64 `json:"onTimePct"`
	AvgBusinessDays float64 `json:"avgBusinessDays"`
}

type tally struct {
	total, onTime, delayed, open, businessDays int
}

func (t *tally) add(r Record) {
	t.total++
	t.businessDays += r.BusinessDays
	if r.Provisional {
		t.open++
	}
	if r.OnTime {
		t.onTime++
	} else {
		t.delayed++
	}
}

func (t tally) onTimePct() float64 {
	if t.total == 0 {
		return 0
	}
	return comparison.RoundTo(float64(t.onTime)/float64(t.total)*100, 1)
}

func (t tally) avgBusinessDays() float64 {
	if t.total == 0 {
		return 0
	}
	return comparison.RoundTo(float64(t.businessDays)/float64(t.total), 1)
}

// Summarize totals the records. Distributors are ordered by delayed count, then name.
func (e *Estimator) Summarize(records []Record) Summary {
	var all tally
	per := make(map[string]*tally)
	for _, r := range records {
		all.add(r)
		t, ok := per[r.Distributor]
		if !ok {
			t = &tally{}
			per[r.Distributor] = t
		}
		t.add(r)
	}

	breakdown := make([]DistributorDelay, 0, len(per))
	for name, t := range per {
		breakdown = append(breakdown, DistributorDelay{
			Distributor:     name,
			Total:           t.total,
			OnTime:          t.onTime,
			Delayed:         t.delayed,
			OnTimePct:       t.onTimePct(),
			AvgBusinessDays: t.avgBusinessDays(),
		})
	}
	sort.Slice(breakdown, func(i, j int) bool {
		if breakdown[i].Delayed != breakdown[j].Delayed {
			return breakdown[i].Delayed > breakdown[j].Delayed
		}
		return breakdown[i].Distributor < breakdown[j].Distributor
	})

	return Summary{
		TargetBusinessDays: e.target,
		Total:              all.total,
		OnTime:             all.onTime,
		Delayed:            all.delayed,
		Open:               all.open,
		OnTimePct:          all.onTimePct(),
		AvgBusinessDays:    all.avgBusinessDays(),
		ByDistributor:      breakdown,
	}
}
