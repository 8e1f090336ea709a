package engine

import (
	"fmt"
	"sync"
)

// Fixed blend splits. Recent leans on live tournament form, season on
// long-term skill. The extended mode uses the caller-supplied weight instead.
const (
	recentTournamentWeight = 0.85
	seasonTournamentWeight = 0.25
)

// BlendOptions configures how the performance blender combines tournament
// and season strokes gained.
type BlendOptions struct {
	Mode BlendMode `json:"mode"`
	// TournamentWeight applies to BlendExtended only, in [0, 1]. The
	// boundary values are a hard data-source requirement: 1 means
	// tournament-only and 0 means season-only, and a player missing the
	// pinned source is excluded instead of falling back.
	TournamentWeight float64 `json:"tournament_weight"`
	// SeasonSource selects which rating provider supplies season data.
	SeasonSource SeasonSource `json:"season_source"`
}

// DefaultBlendOptions returns the blend configuration used when the caller
// does not specify one.
func DefaultBlendOptions() BlendOptions {
	return BlendOptions{
		Mode:             BlendRecent,
		TournamentWeight: 0.5,
		SeasonSource:     SourceProviderA,
	}
}

func (o BlendOptions) validate() error {
	switch o.Mode {
	case BlendRecent, BlendExtended, BlendSeason:
	default:
		return badConfig("blend mode", fmt.Sprintf("%q is not recognized", o.Mode))
	}
	if o.TournamentWeight < 0 || o.TournamentWeight > 1 {
		return badConfig("tournament weight", fmt.Sprintf("%v is outside [0, 1]", o.TournamentWeight))
	}
	switch o.SeasonSource {
	case SourceProviderA, SourceProviderB, SourceAggregate:
	default:
		return badConfig("season source", fmt.Sprintf("%q is not recognized", o.SeasonSource))
	}
	return nil
}

// BlendCache memoizes blend results within a scoring pass. It is injected by
// the caller rather than shared at package level so that two unrelated passes
// can never contaminate each other; keys include every input that affects the
// result, so even a reused cache stays correct. Safe for concurrent use:
// request handlers share one cache across overlapping passes.
type BlendCache struct {
	mu      sync.RWMutex
	entries map[string]blendResult
}

type blendResult struct {
	value  float64
	method string
}

// NewBlendCache returns an empty cache for one scoring pass.
func NewBlendCache() *BlendCache {
	return &BlendCache{entries: make(map[string]blendResult)}
}

// Clear empties the cache. The sync service calls this after fresh odds and
// stats land so the next pass recomputes from the new inputs.
func (c *BlendCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]blendResult)
	c.mu.Unlock()
}

// Len reports the number of memoized entries.
func (c *BlendCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *BlendCache) lookup(key string) (blendResult, bool) {
	if c == nil {
		return blendResult{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.entries[key]
	return r, ok
}

func (c *BlendCache) store(key string, r blendResult) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries[key] = r
	c.mu.Unlock()
}

// WeightedSG produces one scalar strokes-gained value for a player by
// blending tournament and season totals per the configured policy. It
// returns the computed value, a human-readable calculation-method tag, and
// an error only for invalid configuration. Missing data never errors: when
// the required sources are absent the value is the ExcludedSG sentinel.
func WeightedSG(p PlayerRecord, opts BlendOptions, cache *BlendCache) (float64, string, error) {
	if err := opts.validate(); err != nil {
		return 0, "", err
	}

	season := seasonValue(p.SeasonA.Total, p.SeasonB.Total, opts.SeasonSource)
	key := blendKey(p.PlayerID, "total", opts, p.Tournament.Total, season)
	if r, ok := cache.lookup(key); ok {
		return r.value, r.method, nil
	}

	r := blend(p.Tournament.Total, season, opts)
	cache.store(key, r)
	return r.value, r.method, nil
}

// WeightedSGCategory blends a single strokes-gained sub-category with the
// same policy and edge handling as WeightedSG.
func WeightedSGCategory(p PlayerRecord, cat SGCategory, opts BlendOptions, cache *BlendCache) (float64, string, error) {
	if err := opts.validate(); err != nil {
		return 0, "", err
	}

	tournament := p.Tournament.Category(cat)
	season := seasonValue(p.SeasonA.Category(cat), p.SeasonB.Category(cat), opts.SeasonSource)
	key := blendKey(p.PlayerID, string(cat), opts, tournament, season)
	if r, ok := cache.lookup(key); ok {
		return r.value, r.method, nil
	}

	r := blend(tournament, season, opts)
	cache.store(key, r)
	return r.value, r.method, nil
}

// seasonValue resolves the season-long figure from the configured provider.
func seasonValue(a, b *float64, source SeasonSource) *float64 {
	switch source {
	case SourceProviderA:
		return a
	case SourceProviderB:
		return b
	case SourceAggregate:
		if a != nil && b != nil {
			mean := (*a + *b) / 2
			return &mean
		}
		if a != nil {
			return a
		}
		return b
	}
	return nil
}

func blend(tournament, season *float64, opts BlendOptions) blendResult {
	// Pinned boundary weights are a hard requirement on the pinned source.
	// This asymmetry is intentional: an explicit 0 or 1 means "use only
	// this source", so the other source being available is irrelevant.
	if opts.Mode == BlendExtended {
		if opts.TournamentWeight == 1 {
			if tournament == nil {
				return blendResult{ExcludedSG, "excluded: tournament data required by pinned weight"}
			}
			return blendResult{*tournament, "tournament only (pinned weight 1)"}
		}
		if opts.TournamentWeight == 0 {
			if season == nil {
				return blendResult{ExcludedSG, "excluded: season data required by pinned weight"}
			}
			return blendResult{*season, "season only (pinned weight 0)"}
		}
	}

	switch {
	case tournament != nil && season != nil:
		w := tournamentWeight(opts)
		value := w**tournament + (1-w)**season
		return blendResult{value, fmt.Sprintf("%s blend %.0f/%.0f", opts.Mode, w*100, (1-w)*100)}
	case tournament != nil:
		return blendResult{*tournament, "tournament only (no season data)"}
	case season != nil:
		return blendResult{*season, "season only (no tournament data)"}
	}
	return blendResult{ExcludedSG, "excluded: no strokes-gained data"}
}

func tournamentWeight(opts BlendOptions) float64 {
	switch opts.Mode {
	case BlendRecent:
		return recentTournamentWeight
	case BlendSeason:
		return seasonTournamentWeight
	}
	return opts.TournamentWeight
}

func blendKey(playerID int64, stat string, opts BlendOptions, tournament, season *float64) string {
	return fmt.Sprintf("%d|%s|%s|%.4f|%s|%s|%s",
		playerID, stat, opts.Mode, opts.TournamentWeight, opts.SeasonSource,
		ptrKey(tournament), ptrKey(season))
}

func ptrKey(v *float64) string {
	if v == nil {
		return "nil"
	}
	return fmt.Sprintf("%.6f", *v)
}
