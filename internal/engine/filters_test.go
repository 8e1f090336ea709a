package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildField creates n two-player groups. Group i gets tournament SG totals
// sg[i] and sg[i]-0.4 so the first player always leads the matchup.
func buildField(sgLeaders []float64) []PlayerRecord {
	players := make([]PlayerRecord, 0, len(sgLeaders)*2)
	for i, sg := range sgLeaders {
		group := fmt.Sprintf("g%d", i+1)
		leader := fieldPlayer(int64(i*2+1), group, float(-130), float(sg), float(sg))
		trailer := fieldPlayer(int64(i*2+2), group, float(110), float(sg-0.4), float(sg-0.4))
		players = append(players, leader, trailer)
	}
	return players
}

func TestRunFilterValidation(t *testing.T) {
	_, err := RunFilter("mystery", nil, nil, DefaultFilterOptions(FilterSGHeavy), NewBlendCache())
	assert.Error(t, err)

	opts := DefaultFilterOptions(FilterSGHeavy)
	opts.SortKey = "shoe_size"
	_, err = RunFilter(FilterSGHeavy, nil, nil, opts, NewBlendCache())
	assert.Error(t, err)

	opts = DefaultFilterOptions(FilterSGHeavy)
	opts.Score.Blend.Mode = "bogus"
	_, err = RunFilter(FilterSGHeavy, buildField([]float64{1.0}), nil, opts, NewBlendCache())
	assert.Error(t, err)
}

// Ten groups, three entirely below the SG floor: the output contains only
// players from the seven qualifying groups, while metadata still reports all
// ten. Empty groups are omissions, not errors.
func TestSGHeavySkipsEmptyGroups(t *testing.T) {
	sgLeaders := []float64{2.0, 1.8, 1.6, 1.5, 1.4, 1.3, 1.2, -2.0, -2.5, -3.0}
	players := buildField(sgLeaders)

	opts := DefaultFilterOptions(FilterSGHeavy)
	opts.MinSG = 0.5

	result, err := RunFilter(FilterSGHeavy, players, nil, opts, NewBlendCache())
	require.NoError(t, err)

	assert.Equal(t, 10, result.Meta.TotalGroups)
	assert.Equal(t, 20, result.Meta.TotalPlayers)
	assert.Equal(t, 7, result.Meta.GroupsWithQualifier)
	assert.Len(t, result.Players, 7, "one top qualifier per surviving group")
	assert.Equal(t, 7, result.Meta.QualifiedPlayers)

	for _, rec := range result.Players {
		assert.GreaterOrEqual(t, rec.WeightedSG, opts.MinSG)
	}
}

func TestSGHeavySortAndTiebreak(t *testing.T) {
	players := buildField([]float64{1.0, 2.0, 1.5})

	result, err := RunFilter(FilterSGHeavy, players, nil, DefaultFilterOptions(FilterSGHeavy), NewBlendCache())
	require.NoError(t, err)
	require.Len(t, result.Players, 3)

	for i := 1; i < len(result.Players); i++ {
		assert.GreaterOrEqual(t, result.Players[i-1].WeightedSG, result.Players[i].WeightedSG,
			"primary sort is weighted SG descending")
	}
}

func TestSGHeavyAllQualifiers(t *testing.T) {
	players := buildField([]float64{2.0})

	opts := DefaultFilterOptions(FilterSGHeavy)
	opts.MinSG = 0.5
	opts.AllQualifiers = true

	result, err := RunFilter(FilterSGHeavy, players, nil, opts, NewBlendCache())
	require.NoError(t, err)
	assert.Len(t, result.Players, 2, "both group members clear the floor")
}

func TestSGHeavyUnderdogToggle(t *testing.T) {
	players := buildField([]float64{2.0})

	opts := DefaultFilterOptions(FilterSGHeavy)
	opts.AllQualifiers = true
	opts.IncludeUnderdogs = false

	result, err := RunFilter(FilterSGHeavy, players, nil, opts, NewBlendCache())
	require.NoError(t, err)
	require.Len(t, result.Players, 1)
	assert.Greater(t, result.Players[0].OddsGap, 0.0, "only the favorite survives")
}

func TestSGValueFilter(t *testing.T) {
	// Leader is heavily juiced, trailer is barely behind on SG but much
	// cheaper: the trailer should surface as the value play.
	leader := fieldPlayer(1, "g1", float(-250), float(1.0), float(1.0))
	trailer := fieldPlayer(2, "g1", float(210), float(0.95), float(0.95))
	other1 := fieldPlayer(3, "g2", float(-120), float(0.4), float(0.4))
	other2 := fieldPlayer(4, "g2", float(100), float(0.6), float(0.6))

	opts := DefaultFilterOptions(FilterSGValue)
	opts.MinValueScore = 0.01

	result, err := RunFilter(FilterSGValue, []PlayerRecord{leader, trailer, other1, other2}, nil, opts, NewBlendCache())
	require.NoError(t, err)
	require.NotEmpty(t, result.Players)

	for _, rec := range result.Players {
		assert.GreaterOrEqual(t, rec.ValueScore, opts.MinValueScore)
		assert.NotEqual(t, int64(1), rec.Player.PlayerID, "juiced favorite cannot be the value pick")
	}
	for i := 1; i < len(result.Players); i++ {
		assert.GreaterOrEqual(t, result.Players[i-1].ValueScore, result.Players[i].ValueScore)
	}
}

func TestHeavyFavoritesFilter(t *testing.T) {
	clear := []PlayerRecord{
		fieldPlayer(1, "g1", float(-200), float(1.0), float(1.0)),
		fieldPlayer(2, "g1", float(170), float(0.5), float(0.5)),
	}
	coinFlip := []PlayerRecord{
		fieldPlayer(3, "g2", float(-112), float(0.8), float(0.8)),
		fieldPlayer(4, "g2", float(-110), float(0.7), float(0.7)),
	}

	result, err := RunFilter(FilterHeavyFavorites, append(clear, coinFlip...), nil, DefaultFilterOptions(FilterHeavyFavorites), NewBlendCache())
	require.NoError(t, err)

	require.Len(t, result.Players, 1, "coin flips have no heavy favorite")
	assert.Equal(t, int64(1), result.Players[0].Player.PlayerID)
	assert.InDelta(t, 370, result.Players[0].OddsGap, 1e-6)
	assert.Equal(t, 2, result.Meta.TotalGroups)
	assert.Equal(t, 1, result.Meta.GroupsWithQualifier)
}

// Odds gaps compare prices on the American scale, reading each quote in its
// own record's format: a 4/1 fractional underdog converts to +400, widening
// the favorite's cushion beyond what a decimal misread would show.
func TestHeavyFavoritesMixedQuoteFormats(t *testing.T) {
	favorite := fieldPlayer(1, "g1", float(-150), float(1.2), float(1.0))
	favorite.OddsFormat = OddsAmerican
	underdog := fieldPlayer(2, "g1", float(4.0), float(0.4), float(0.3))
	underdog.OddsFormat = OddsFractional

	result, err := RunFilter(FilterHeavyFavorites, []PlayerRecord{favorite, underdog}, nil, DefaultFilterOptions(FilterHeavyFavorites), NewBlendCache())
	require.NoError(t, err)
	require.Len(t, result.Players, 1)
	assert.Equal(t, int64(1), result.Players[0].Player.PlayerID)
	assert.InDelta(t, 550, result.Players[0].OddsGap, 1e-6)
}

func TestRunFilterSkipsLoneSurvivors(t *testing.T) {
	// Second group member has no SG at all, so the group cannot produce a
	// comparative signal and is skipped outright.
	players := []PlayerRecord{
		fieldPlayer(1, "g1", float(-150), float(2.0), float(2.0)),
		fieldPlayer(2, "g1", float(130), nil, nil),
	}

	result, err := RunFilter(FilterSGHeavy, players, nil, DefaultFilterOptions(FilterSGHeavy), NewBlendCache())
	require.NoError(t, err)
	assert.Empty(t, result.Players)
	assert.Equal(t, 1, result.Meta.TotalGroups)
	assert.Equal(t, 0, result.Meta.GroupsWithQualifier)
	assert.Equal(t, 1, result.Meta.Summary.SkippedNoSG)
}

func TestRunFilterEchoesOptions(t *testing.T) {
	opts := DefaultFilterOptions(FilterSGHeavy)
	opts.MinSG = 1.25

	result, err := RunFilter(FilterSGHeavy, buildField([]float64{2.0}), nil, opts, NewBlendCache())
	require.NoError(t, err)
	assert.Equal(t, opts, result.Meta.Options)
	assert.Equal(t, FilterSGHeavy, result.Meta.Filter)
	assert.False(t, result.Meta.GeneratedAt.IsZero())
}

func TestHeavyFavoritesCourseFitInfluence(t *testing.T) {
	players := []PlayerRecord{
		fieldPlayer(1, "g1", float(-200), float(1.0), float(1.0)),
		fieldPlayer(2, "g1", float(170), float(0.5), float(0.5)),
	}
	fitFactors := map[int64]float64{1: 1.5, 2: 0.5}

	result, err := RunFilter(FilterHeavyFavorites, players, fitFactors, DefaultFilterOptions(FilterHeavyFavorites), NewBlendCache())
	require.NoError(t, err)
	require.Len(t, result.Players, 1)
	assert.Equal(t, 1.5, result.Players[0].CourseFitFactor)
}
