package comparison

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFulfillmentGuardsDivision(t *testing.T) {
	for _, target := range []float64{0, -50, math.NaN(), math.Inf(1)} {
		s := Snapshot{Achieved: 120, Target: target}
		assert.Zero(t, s.Fulfillment(), "target %v", target)
		assert.Zero(t, s.Figures().Fulfillment, "target %v", target)
	}
	assert.Equal(t, 50.0, Snapshot{Achieved: 100, Target: 200}.Figures().Fulfillment)
}

func TestCompareWithoutBaseline(t *testing.T) {
	changes := Compare(Snapshot{Achieved: 90, Target: 100, Points: 12, Participants: 4}, nil)

	assert.Zero(t, changes.AchievedDeltaPct)
	assert.Zero(t, changes.PreviousAchieved)
	assert.Equal(t, 90.0, changes.AchievedDelta)
	assert.Equal(t, int64(4), changes.ParticipantsDelta)
	assert.Equal(t, 90.0, changes.FulfillmentDelta)
}

func TestCompareZeroPreviousIsGuarded(t *testing.T) {
	changes := Compare(Snapshot{Achieved: -10}, &Snapshot{})
	assert.Zero(t, changes.AchievedDeltaPct)
	assert.Equal(t, -10.0, changes.AchievedDelta)
}

func TestCompareScenario(t *testing.T) {
	current := Snapshot{Achieved: 100, Target: 200}
	previous := Snapshot{Achieved: 80, Target: 200}

	changes := Compare(current, &previous)

	assert.Equal(t, 50.0, current.Figures().Fulfillment)
	assert.Equal(t, 40.0, previous.Figures().Fulfillment)
	assert.Equal(t, 20.0, changes.AchievedDelta)
	assert.Equal(t, 25.0, changes.AchievedDeltaPct)
	assert.Equal(t, 10.0, changes.FulfillmentDelta)
	assert.Equal(t, 80.0, changes.PreviousAchieved)
}

func TestFractionalAmountsKeepTwoDecimals(t *testing.T) {
	figures := Snapshot{Achieved: 0.4, Target: 1, Points: 2.6}.Figures()
	assert.Equal(t, 0.4, figures.Achieved)
	assert.Equal(t, 1.0, figures.Target)
	assert.Equal(t, 40.0, figures.Fulfillment)
	assert.Equal(t, 3.0, figures.Points)

	current := Snapshot{Achieved: 1.4, Target: 2}
	previous := Snapshot{Achieved: 1.0, Target: 2.3}
	changes := Compare(current, &previous)

	assert.Equal(t, 0.4, changes.AchievedDelta)
	assert.Equal(t, 40.0, changes.AchievedDeltaPct)
	assert.Equal(t, 1.0, changes.PreviousAchieved)
	assert.Equal(t, -0.3, changes.TargetDelta)
	assert.InDelta(t, current.Figures().Achieved-changes.PreviousAchieved, changes.AchievedDelta, 1e-9)
}

func TestPercentChangeRoundsToOneDecimal(t *testing.T) {
	assert.Equal(t, 33.3, PercentChange(1, 3))
	assert.Equal(t, -33.3, PercentChange(-1, 3))
	assert.Equal(t, 0.0, PercentChange(5, 0))
}

func TestRoundToAvoidsNegativeZero(t *testing.T) {
	v := RoundTo(-0.01, 1)
	assert.Zero(t, v)
	assert.False(t, math.Signbit(v))

	raw, err := json.Marshal(Compare(Snapshot{Achieved: 1, Target: 3}, &Snapshot{Achieved: 1.0001, Target: 3}))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "-0")
	assert.NotContains(t, string(raw), "NaN")
}

func TestRankEntitiesIsStableAndMonotonic(t *testing.T) {
	ranked := RankEntities([]EntitySnapshot{
		{Name: "C", Snapshot: Snapshot{Achieved: 10}},
		{Name: "A", Snapshot: Snapshot{Achieved: 50}},
		{Name: "B", Snapshot: Snapshot{Achieved: 10}},
		{Name: "D", Snapshot: Snapshot{Achieved: 70}},
	})

	names := make([]string, 0, len(ranked))
	for i, e := range ranked {
		assert.Equal(t, i+1, e.Rank)
		if i > 0 {
			assert.LessOrEqual(t, e.Achieved, ranked[i-1].Achieved)
		}
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"D", "A", "C", "B"}, names)
}

func TestCompareEntitiesRankChange(t *testing.T) {
	current := RankEntities([]EntitySnapshot{
		{Name: "A", Snapshot: Snapshot{Achieved: 200}},
		{Name: "B", Snapshot: Snapshot{Achieved: 100}},
	})
	previous := RankEntities([]EntitySnapshot{
		{Name: "B", Snapshot: Snapshot{Achieved: 150}},
		{Name: "A", Snapshot: Snapshot{Achieved: 120}},
	})

	rows := CompareEntities(current, previous)
	require.Len(t, rows, 2)

	assert.Equal(t, "A", rows[0].Name)
	assert.Equal(t, 1, rows[0].Rank)
	assert.Equal(t, 2, rows[0].PreviousRank)
	assert.Equal(t, 1, rows[0].RankChange)

	assert.Equal(t, "B", rows[1].Name)
	assert.Equal(t, -1, rows[1].RankChange)
	assert.Equal(t, -33.3, rows[1].Changes.AchievedDeltaPct)
}

func TestCompareEntitiesNewEntity(t *testing.T) {
	current := RankEntities([]EntitySnapshot{
		{Name: "New", Snapshot: Snapshot{Achieved: 40, Target: 80}},
	})
	previous := RankEntities([]EntitySnapshot{
		{Name: "Gone", Snapshot: Snapshot{Achieved: 99}},
	})

	rows := CompareEntities(current, previous)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "New", row.Name)
	assert.Zero(t, row.PreviousRank)
	assert.Zero(t, row.RankChange)
	assert.Zero(t, row.Changes.AchievedDeltaPct)
	assert.Equal(t, 40.0, row.Changes.AchievedDelta)
	assert.Equal(t, Figures{}, row.Previous)
	assert.Equal(t, 50.0, row.Current.Fulfillment)
}
