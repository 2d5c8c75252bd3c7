package comparison

import (
	"math"
	"sort"
)

// Snapshot holds the unrounded measures of one period, optionally scoped to one entity.
type Snapshot struct {
	Achieved     float64
	Target       float64
	Points       float64
	Participants int64
}

// Fulfillment is achieved over target as a percentage, 0 when target is not positive.
func (s Snapshot) Fulfillment() float64 {
	return Fulfillment(s.Achieved, s.Target)
}

// AmountDecimals is the output precision of achieved and target sums and their deltas.
const AmountDecimals = 2

// Figures returns the snapshot rounded for presentation.
func (s Snapshot) Figures() Figures {
	return Figures{
		Achieved:     RoundTo(s.Achieved, AmountDecimals),
		Target:       RoundTo(s.Target, AmountDecimals),
		Fulfillment:  RoundTo(s.Fulfillment(), 1),
		Points:       RoundTo(s.Points, 0),
		Participants: s.Participants,
	}
}

// Figures is the JSON face of a Snapshot.
type Figures struct {
	Achieved     float64 `json:"achieved"`
	Target       float64 `json:"target"`
	Fulfillment  float64 `json:"fulfillment"`
	Points       float64 `json:"points"`
	Participants int64   `json:"participants"`
}

// EntitySnapshot is a Snapshot for one named KPI or distributor with its rank in the period.
type EntitySnapshot struct {
	Name string
	Rank int
	Snapshot
}

// RankEntities orders entities by achieved, highest first, and assigns 1-based ranks.
// Ties keep their input order.
func RankEntities(entities []EntitySnapshot) []EntitySnapshot {
	ranked := make([]EntitySnapshot, len(entities))
	copy(ranked, entities)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Achieved > ranked[j].Achieved
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// Fulfillment divides achieved by target as a percentage. Non-positive or non-finite targets yield 0.
func Fulfillment(achieved, target float64) float64 {
	if !(target > 0) || math.IsInf(target, 0) {
		return 0
	}
	return finite(achieved / target * 100)
}

// RoundTo rounds half up to the given number of decimals. NaN, infinities and negative zero
// come back as 0.
func RoundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return roundHalfUp(v*p) / p
}

func roundHalfUp(v float64) float64 {
	r := math.Floor(v + 0.5)
	if r == 0 || math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
