package comparison

// Filter is the set of optional predicates narrowing a report. Zero values mean no restriction.
type Filter struct {
	Segment  string
	Group    string
	Position string
	Route    string
	KPI      string
	Region   string
	Month    int
	Year     int
}

// PinnedPeriod returns the explicitly requested period when both month and year are set.
func (f Filter) PinnedPeriod() (PeriodKey, bool) {
	p := PeriodKey{Year: f.Year, Month: f.Month}
	if f.Month == 0 || f.Year == 0 || !p.Valid() {
		return PeriodKey{}, false
	}
	return p, true
}

// WithoutPeriod drops the month and year predicates.
func (f Filter) WithoutPeriod() Filter {
	f.Month = 0
	f.Year = 0
	return f
}

// WithoutMonth drops the month predicate and keeps the year.
func (f Filter) WithoutMonth() Filter {
	f.Month = 0
	return f
}
