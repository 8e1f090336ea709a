package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blendPlayer(tournament, seasonA, seasonB *float64) PlayerRecord {
	return PlayerRecord{
		PlayerID:   10001,
		Name:       "Test Player",
		GroupID:    "g1",
		Tournament: SGLine{Total: tournament},
		SeasonA:    SGLine{Total: seasonA},
		SeasonB:    SGLine{Total: seasonB},
	}
}

func TestWeightedSGModes(t *testing.T) {
	tests := []struct {
		name     string
		player   PlayerRecord
		opts     BlendOptions
		expected float64
	}{
		{
			name:     "recent mode 85/15",
			player:   blendPlayer(float(2.0), float(1.0), nil),
			opts:     BlendOptions{Mode: BlendRecent, SeasonSource: SourceProviderA},
			expected: 0.85*2.0 + 0.15*1.0,
		},
		{
			name:     "season mode 25/75",
			player:   blendPlayer(float(2.0), float(1.0), nil),
			opts:     BlendOptions{Mode: BlendSeason, SeasonSource: SourceProviderA},
			expected: 0.25*2.0 + 0.75*1.0,
		},
		{
			name:     "extended mode linear",
			player:   blendPlayer(float(2.0), float(1.0), nil),
			opts:     BlendOptions{Mode: BlendExtended, TournamentWeight: 0.6, SeasonSource: SourceProviderA},
			expected: 0.6*2.0 + 0.4*1.0,
		},
		{
			name:     "tournament only when season missing",
			player:   blendPlayer(float(1.2), nil, nil),
			opts:     BlendOptions{Mode: BlendRecent, SeasonSource: SourceProviderA},
			expected: 1.2,
		},
		{
			name:     "season only when tournament missing",
			player:   blendPlayer(nil, float(0.8), nil),
			opts:     BlendOptions{Mode: BlendExtended, TournamentWeight: 0.6, SeasonSource: SourceProviderA},
			expected: 0.8,
		},
		{
			name:     "no data excluded",
			player:   blendPlayer(nil, nil, nil),
			opts:     BlendOptions{Mode: BlendRecent, SeasonSource: SourceProviderA},
			expected: ExcludedSG,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, method, err := WeightedSG(tt.player, tt.opts, NewBlendCache())
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, got, 1e-9)
			assert.NotEmpty(t, method)
		})
	}
}

// An explicit boundary weight is a hard data-source requirement, not a
// preference: missing the pinned source excludes the player instead of
// silently falling back to the other one.
func TestWeightedSGPinnedWeights(t *testing.T) {
	t.Run("weight 1 with no tournament data excludes", func(t *testing.T) {
		player := blendPlayer(nil, float(1.5), nil)
		opts := BlendOptions{Mode: BlendExtended, TournamentWeight: 1, SeasonSource: SourceProviderA}

		got, method, err := WeightedSG(player, opts, NewBlendCache())
		require.NoError(t, err)
		assert.Equal(t, ExcludedSG, got, "must not fall back to season data")
		assert.Contains(t, method, "excluded")
	})

	t.Run("weight 0 with no season data excludes", func(t *testing.T) {
		player := blendPlayer(float(1.5), nil, nil)
		opts := BlendOptions{Mode: BlendExtended, TournamentWeight: 0, SeasonSource: SourceProviderA}

		got, _, err := WeightedSG(player, opts, NewBlendCache())
		require.NoError(t, err)
		assert.Equal(t, ExcludedSG, got)
	})

	t.Run("weight 1 uses tournament even with season present", func(t *testing.T) {
		player := blendPlayer(float(2.2), float(0.1), nil)
		opts := BlendOptions{Mode: BlendExtended, TournamentWeight: 1, SeasonSource: SourceProviderA}

		got, _, err := WeightedSG(player, opts, NewBlendCache())
		require.NoError(t, err)
		assert.Equal(t, 2.2, got)
	})
}

func TestWeightedSGSeasonSources(t *testing.T) {
	player := blendPlayer(nil, float(1.0), float(2.0))

	tests := []struct {
		source   SeasonSource
		expected float64
	}{
		{SourceProviderA, 1.0},
		{SourceProviderB, 2.0},
		{SourceAggregate, 1.5},
	}

	for _, tt := range tests {
		t.Run(string(tt.source), func(t *testing.T) {
			got, _, err := WeightedSG(player, BlendOptions{Mode: BlendRecent, SeasonSource: tt.source}, NewBlendCache())
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	t.Run("aggregate falls back to the only provider", func(t *testing.T) {
		onlyB := blendPlayer(nil, nil, float(2.0))
		got, _, err := WeightedSG(onlyB, BlendOptions{Mode: BlendRecent, SeasonSource: SourceAggregate}, NewBlendCache())
		require.NoError(t, err)
		assert.Equal(t, 2.0, got)
	})
}

func TestWeightedSGCategory(t *testing.T) {
	player := PlayerRecord{
		PlayerID:   7,
		Tournament: SGLine{Putting: float(0.4)},
		SeasonA:    SGLine{Putting: float(0.2)},
	}
	opts := BlendOptions{Mode: BlendRecent, SeasonSource: SourceProviderA}

	got, _, err := WeightedSGCategory(player, CategoryPutting, opts, NewBlendCache())
	require.NoError(t, err)
	assert.InDelta(t, 0.85*0.4+0.15*0.2, got, 1e-9)

	// A category neither source reports is excluded.
	got, _, err = WeightedSGCategory(player, CategoryApproach, opts, NewBlendCache())
	require.NoError(t, err)
	assert.Equal(t, ExcludedSG, got)
}

func TestWeightedSGValidation(t *testing.T) {
	player := blendPlayer(float(1.0), float(1.0), nil)

	_, _, err := WeightedSG(player, BlendOptions{Mode: "bogus", SeasonSource: SourceProviderA}, nil)
	assert.Error(t, err)

	_, _, err = WeightedSG(player, BlendOptions{Mode: BlendExtended, TournamentWeight: 1.5, SeasonSource: SourceProviderA}, nil)
	assert.Error(t, err)

	_, _, err = WeightedSG(player, BlendOptions{Mode: BlendRecent, SeasonSource: "nope"}, nil)
	assert.Error(t, err)

	var cfgErr *ErrBadConfig
	assert.ErrorAs(t, err, &cfgErr)
}

func TestBlendCache(t *testing.T) {
	player := blendPlayer(float(2.0), float(1.0), nil)
	opts := BlendOptions{Mode: BlendRecent, SeasonSource: SourceProviderA}
	cache := NewBlendCache()

	first, _, err := WeightedSG(player, opts, cache)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Len())

	second, _, err := WeightedSG(player, opts, cache)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.Len(), "second identical call must hit the cache")

	// Changing any input changes the key, so no stale value comes back.
	changed := blendPlayer(float(3.0), float(1.0), nil)
	third, _, err := WeightedSG(changed, opts, cache)
	require.NoError(t, err)
	assert.NotEqual(t, first, third)
	assert.Equal(t, 2, cache.Len())

	cache.Clear()
	assert.Equal(t, 0, cache.Len())

	// A nil cache is valid: computation proceeds without memoization.
	got, _, err := WeightedSG(player, opts, nil)
	require.NoError(t, err)
	assert.Equal(t, first, got)
}

// The matchup service holds one cache and serves overlapping requests, so
// blends and clears run concurrently. Run with -race.
func TestBlendCacheConcurrentPasses(t *testing.T) {
	cache := NewBlendCache()
	opts := BlendOptions{Mode: BlendRecent, SeasonSource: SourceProviderA}
	expected := 0.85*2.0 + 0.15*1.0

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(offset int64) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				p := blendPlayer(float(2.0), float(1.0), nil)
				p.PlayerID = offset*1000 + int64(i%25)
				got, _, err := WeightedSG(p, opts, cache)
				assert.NoError(t, err)
				assert.InDelta(t, expected, got, 1e-9)
			}
		}(int64(g))
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			cache.Clear()
		}
	}()
	wg.Wait()
}
