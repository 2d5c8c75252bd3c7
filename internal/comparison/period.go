// Package comparison implements the period-over-period engine used by every report: period
// resolution, snapshot arithmetic, deltas and rank movement. It performs no I/O.
package comparison

import (
	"fmt"
	"sort"
	"strings"
)

// PeriodKey identifies one monthly reporting period.
type PeriodKey struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// Valid reports whether the key names a real month.
func (p PeriodKey) Valid() bool {
	return p.Year > 0 && p.Month >= 1 && p.Month <= 12
}

// Before orders keys lexicographically on (year, month).
func (p PeriodKey) Before(other PeriodKey) bool {
	if p.Year != other.Year {
		return p.Year < other.Year
	}
	return p.Month < other.Month
}

func (p PeriodKey) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// Mode selects how the previous period is derived from the current one.
type Mode string

const (
	ModeMonthToMonth Mode = "month-to-month"
	ModeQuarter      Mode = "quarter"
	ModeYTD          Mode = "ytd"
)

// ParseMode normalises the mode query parameter. Unknown values select month-to-month.
func ParseMode(raw string) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case ModeQuarter:
		return ModeQuarter
	case ModeYTD:
		return ModeYTD
	default:
		return ModeMonthToMonth
	}
}

// Implemented reports whether the mode has its own resolution rules.
func (m Mode) Implemented() bool {
	return m == ModeMonthToMonth || m == ""
}

// Resolution is the outcome of period resolution. Either pointer may be nil.
type Resolution struct {
	Current  *PeriodKey
	Previous *PeriodKey
}

// ResolvePeriods picks the current and previous period from the periods that hold data.
// When pinned is set it is the current period and the previous one is the closest period
// strictly before it. Otherwise the two most recent periods are used.
//
// Quarter and year-to-date windows do not exist yet: every mode resolves like month-to-month.
func ResolvePeriods(available []PeriodKey, pinned *PeriodKey, _ Mode) Resolution {
	periods := SortDescending(available)
	if pinned != nil && pinned.Valid() {
		current := *pinned
		res := Resolution{Current: &current}
		for _, p := range periods {
			if p.Before(current) {
				prev := p
				res.Previous = &prev
				break
			}
		}
		return res
	}

	var res Resolution
	if len(periods) > 0 {
		current := periods[0]
		res.Current = &current
	}
	if len(periods) > 1 {
		prev := periods[1]
		res.Previous = &prev
	}
	return res
}

// SortDescending returns a copy of periods, newest first, with duplicates and invalid keys removed.
func SortDescending(periods []PeriodKey) []PeriodKey {
	out := make([]PeriodKey, 0, len(periods))
	seen := make(map[PeriodKey]struct{}, len(periods))
	for _, p := range periods {
		if !p.Valid() {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[j].Before(out[i])
	})
	return out
}

// SortAscending returns a copy of periods, oldest first, with duplicates and invalid keys removed.
func SortAscending(periods []PeriodKey) []PeriodKey {
	out := SortDescending(periods)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
