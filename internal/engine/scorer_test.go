package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldPlayer(id int64, group string, odds *float64, tournament, seasonA *float64) PlayerRecord {
	return PlayerRecord{
		PlayerID:   id,
		Name:       "Player",
		GroupID:    group,
		EventName:  "Test Open",
		Odds:       odds,
		Tournament: SGLine{Total: tournament},
		SeasonA:    SGLine{Total: seasonA},
	}
}

func TestScoreFieldEligibility(t *testing.T) {
	players := []PlayerRecord{
		fieldPlayer(1, "g1", float(-150), float(1.5), float(0.9)), // scored
		fieldPlayer(2, "g1", float(130), float(0.5), float(0.4)),  // scored
		fieldPlayer(3, "g2", nil, float(1.0), float(0.6)),         // no odds
		fieldPlayer(4, "g2", float(110), nil, nil),                // no SG
		fieldPlayer(5, "g3", float(9000), float(0.2), nil),        // outside window
		fieldPlayer(6, "g3", float(-120), float(0.3), float(0.3)), // scored
	}

	opts := DefaultScoreOptions()
	opts.MaxOdds = 1000

	derived, summary, err := ScoreField(players, nil, opts, NewBlendCache())
	require.NoError(t, err)

	assert.Equal(t, 6, summary.TotalPlayers)
	assert.Equal(t, 3, summary.EligiblePlayers)
	assert.Equal(t, 1, summary.SkippedNoSG)
	assert.Equal(t, 1, summary.SkippedNoOdds)
	assert.Equal(t, 1, summary.SkippedOddsWindow)
	require.Len(t, derived, 3)

	// Ineligible players are absent, not scored as zero.
	for _, rec := range derived {
		assert.NotContains(t, []int64{3, 4, 5}, rec.Player.PlayerID)
	}
}

// A 3-ball where one player has no tournament round yet: with a non-boundary
// extended weight the blend falls back to season data instead of excluding.
func TestScoreFieldThreeBallSeasonFallback(t *testing.T) {
	players := []PlayerRecord{
		fieldPlayer(1, "g1", float(-120), float(1.2), float(0.5)),
		fieldPlayer(2, "g1", float(210), float(0.8), float(0.9)),
		fieldPlayer(3, "g1", float(240), nil, float(1.1)),
	}

	opts := DefaultScoreOptions()
	opts.Blend = BlendOptions{Mode: BlendExtended, TournamentWeight: 0.6, SeasonSource: SourceProviderA}

	derived, summary, err := ScoreField(players, nil, opts, NewBlendCache())
	require.NoError(t, err)
	require.Equal(t, 3, summary.EligiblePlayers)

	var third *DerivedRecord
	for i := range derived {
		if derived[i].Player.PlayerID == 3 {
			third = &derived[i]
		}
	}
	require.NotNil(t, third)
	assert.Equal(t, 1.1, third.WeightedSG)
	assert.Contains(t, third.Method, "season only")
}

func TestScoreFieldValueComposition(t *testing.T) {
	players := []PlayerRecord{
		fieldPlayer(1, "g1", float(-150), float(1.5), float(1.0)),
		fieldPlayer(2, "g1", float(130), float(0.2), float(0.1)),
	}

	fitFactors := map[int64]float64{
		1: 1.3, // strong course fit
		2: 1.0,
	}

	opts := DefaultScoreOptions()
	derived, _, err := ScoreField(players, fitFactors, opts, NewBlendCache())
	require.NoError(t, err)
	require.Len(t, derived, 2)

	byID := map[int64]DerivedRecord{}
	for _, rec := range derived {
		byID[rec.Player.PlayerID] = rec
	}

	p1 := byID[1]
	base := p1.PerformancePct - p1.OddsPct
	adjustment := (1.3 - 1.0) * opts.CourseFitWeight
	assert.InDelta(t, base*(1+adjustment), p1.ValueScore, 1e-9)
	assert.InDelta(t, p1.ValueScore*p1.Confidence.Overall, p1.ValueQuality, 1e-9)

	// Vig-adjusted group probabilities sum to 1.
	assert.InDelta(t, 1.0, p1.AdjustedProb+byID[2].AdjustedProb, 1e-9)
	assert.Less(t, p1.AdjustedProb, p1.ImpliedProb, "vig removal shrinks raw probabilities")
}

func TestScoreFieldVigToggle(t *testing.T) {
	players := []PlayerRecord{
		fieldPlayer(1, "g1", float(-150), float(1.0), nil),
		fieldPlayer(2, "g1", float(130), float(0.5), nil),
	}

	opts := DefaultScoreOptions()
	opts.RemoveVig = false

	derived, _, err := ScoreField(players, nil, opts, NewBlendCache())
	require.NoError(t, err)
	for _, rec := range derived {
		assert.Equal(t, rec.ImpliedProb, rec.AdjustedProb)
	}
}

func TestScoreFieldConfidence(t *testing.T) {
	players := []PlayerRecord{
		fieldPlayer(1, "g1", float(-150), float(1.0), float(0.8)), // both sources
		fieldPlayer(2, "g1", float(130), float(0.5), nil),         // tournament only
	}

	derived, _, err := ScoreField(players, nil, DefaultScoreOptions(), NewBlendCache())
	require.NoError(t, err)

	byID := map[int64]DerivedRecord{}
	for _, rec := range derived {
		byID[rec.Player.PlayerID] = rec
	}

	assert.Greater(t, byID[1].Confidence.Performance, byID[2].Confidence.Performance,
		"both data sources must outrank tournament-only")
	assert.Equal(t, 1.0, byID[1].Confidence.Performance)
	for _, rec := range derived {
		assert.InDelta(t, (rec.Confidence.Performance+rec.Confidence.Odds)/2, rec.Confidence.Overall, 1e-9)
		assert.LessOrEqual(t, rec.Confidence.Overall, 1.0)
	}
}

// A record can carry the format its provider quoted in. The stored format
// governs normalization unless the caller overrides it explicitly; anything
// unrecognized degrades to auto-detection.
func TestScoreFieldPerRecordOddsFormat(t *testing.T) {
	frac := fieldPlayer(1, "g1", float(4.0), float(1.0), nil)
	frac.OddsFormat = OddsFractional
	partner := fieldPlayer(2, "g1", float(-150), float(0.5), nil)
	partner.OddsFormat = OddsAmerican

	opts := DefaultScoreOptions()
	opts.RemoveVig = false

	t.Run("stored format governs under auto options", func(t *testing.T) {
		derived, _, err := ScoreField([]PlayerRecord{frac, partner}, nil, opts, NewBlendCache())
		require.NoError(t, err)
		require.Len(t, derived, 2)

		byID := map[int64]DerivedRecord{}
		for _, rec := range derived {
			byID[rec.Player.PlayerID] = rec
		}
		assert.InDelta(t, 0.2, byID[1].ImpliedProb, 1e-9, "4.0 reads as 4/1, not decimal 4.0")
		assert.InDelta(t, 0.6, byID[2].ImpliedProb, 1e-9)
	})

	t.Run("explicit override beats stored format", func(t *testing.T) {
		p := frac
		override := opts
		override.OddsFormat = OddsDecimal

		derived, _, err := ScoreField([]PlayerRecord{p, fieldPlayer(3, "g1", float(1.6), float(0.5), nil)}, nil, override, NewBlendCache())
		require.NoError(t, err)
		require.Len(t, derived, 2)
		for _, rec := range derived {
			if rec.Player.PlayerID == 1 {
				assert.InDelta(t, 0.25, rec.ImpliedProb, 1e-9)
			}
		}
	})

	t.Run("unrecognized stored format degrades to detection", func(t *testing.T) {
		p := fieldPlayer(4, "g1", float(4.0), float(1.0), nil)
		p.OddsFormat = "roman"

		derived, _, err := ScoreField([]PlayerRecord{p, partner}, nil, opts, NewBlendCache())
		require.NoError(t, err)
		for _, rec := range derived {
			if rec.Player.PlayerID == 4 {
				assert.InDelta(t, 0.25, rec.ImpliedProb, 1e-9, "detection reads 4.0 as decimal")
			}
		}
	})
}

func TestScoreFieldConfigErrors(t *testing.T) {
	players := []PlayerRecord{fieldPlayer(1, "g1", float(-150), float(1.0), nil)}

	opts := DefaultScoreOptions()
	opts.Blend.Mode = "bogus"
	_, _, err := ScoreField(players, nil, opts, NewBlendCache())
	assert.Error(t, err)

	opts = DefaultScoreOptions()
	opts.MinOdds = 500
	opts.MaxOdds = -500
	_, _, err = ScoreField(players, nil, opts, NewBlendCache())
	assert.Error(t, err)

	opts = DefaultScoreOptions()
	opts.OddsFormat = "roman"
	_, _, err = ScoreField(players, nil, opts, NewBlendCache())
	assert.Error(t, err)
}

func TestScoreFieldEmptyField(t *testing.T) {
	derived, summary, err := ScoreField(nil, nil, DefaultScoreOptions(), NewBlendCache())
	require.NoError(t, err)
	assert.Empty(t, derived)
	assert.Zero(t, summary.TotalPlayers)
}
