package comparison

// Changes carries the period-over-period movement of one snapshot pair.
type Changes struct {
	AchievedDelta     float64 `json:"achievedDelta"`
	AchievedDeltaPct  float64 `json:"achievedDeltaPct"`
	TargetDelta       float64 `json:"targetDelta"`
	PointsDelta       float64 `json:"pointsDelta"`
	ParticipantsDelta int64   `json:"participantsDelta"`
	FulfillmentDelta  float64 `json:"fulfillmentDelta"`
	PreviousAchieved  float64 `json:"previousAchieved"`
}

// Compare derives the movement from previous to current. A nil previous is a zero baseline:
// absolute deltas equal the current values and the percentage delta is 0.
func Compare(current Snapshot, previous *Snapshot) Changes {
	var prev Snapshot
	if previous != nil {
		prev = *previous
	}
	delta := current.Achieved - prev.Achieved
	return Changes{
		AchievedDelta:     RoundTo(delta, AmountDecimals),
		AchievedDeltaPct:  PercentChange(delta, prev.Achieved),
		TargetDelta:       RoundTo(current.Target-prev.Target, AmountDecimals),
		PointsDelta:       RoundTo(current.Points-prev.Points, 0),
		ParticipantsDelta: current.Participants - prev.Participants,
		FulfillmentDelta:  RoundTo(current.Fulfillment()-prev.Fulfillment(), 1),
		PreviousAchieved:  RoundTo(prev.Achieved, AmountDecimals),
	}
}

// PercentChange expresses delta relative to base as a one-decimal percentage, 0 when base is 0.
func PercentChange(delta, base float64) float64 {
	if base == 0 {
		return 0
	}
	return roundHalfUp(finite(delta/base)*1000) / 10
}

// EntityComparison is one row of a ranked per-entity comparison.
type EntityComparison struct {
	Name         string  `json:"name"`
	Rank         int     `json:"rank"`
	PreviousRank int     `json:"previousRank"`
	RankChange   int     `json:"rankChange"`
	Current      Figures `json:"current"`
	Previous     Figures `json:"previous"`
	Changes      Changes `json:"changes"`
}

// CompareEntities matches current entities to previous ones by exact name. Entities without a
// previous entry compare against a zero snapshot with rank 0. Entities that only exist in the
// previous period are not reported. Output follows the current ranking.
func CompareEntities(current, previous []EntitySnapshot) []EntityComparison {
	byName := make(map[string]EntitySnapshot, len(previous))
	for _, p := range previous {
		if _, ok := byName[p.Name]; !ok {
			byName[p.Name] = p
		}
	}

	out := make([]EntityComparison, 0, len(current))
	for _, cur := range current {
		prev := byName[cur.Name]
		out = append(out, EntityComparison{
			Name:         cur.Name,
			Rank:         cur.Rank,
			PreviousRank: prev.Rank,
			RankChange:   RankChange(cur.Rank, prev.Rank),
			Current:      cur.Snapshot.Figures(),
			Previous:     prev.Snapshot.Figures(),
			Changes:      Compare(cur.Snapshot, &prev.Snapshot),
		})
	}
	return out
}

// RankChange is positive when the entity moved up. An unranked previous position yields 0.
func RankChange(currentRank, previousRank int) int {
	if previousRank == 0 {
		return 0
	}
	return previousRank - currentRank
}
