package engine

import (
	"fmt"
	"sort"
	"time"
)

// FilterName identifies one of the concrete matchup filters.
type FilterName string

const (
	// FilterSGHeavy surfaces the strongest strokes-gained plays.
	FilterSGHeavy FilterName = "sg-heavy"
	// FilterSGValue surfaces players whose performance rank beats their
	// market rank.
	FilterSGValue FilterName = "sg-value"
	// FilterHeavyFavorites surfaces matchups with a clear market favorite.
	FilterHeavyFavorites FilterName = "heavy-favorites"
)

// SortKey selects the primary ordering of a filter's output.
type SortKey string

const (
	SortByWeightedSG   SortKey = "weighted_sg"
	SortByValueScore   SortKey = "value_score"
	SortByValueQuality SortKey = "value_quality"
	SortByOddsGap      SortKey = "odds_gap"
	SortByOdds         SortKey = "odds"
)

// FilterOptions configures one filter run. Zero values are not meaningful;
// start from DefaultFilterOptions and override.
type FilterOptions struct {
	Score ScoreOptions `json:"score"`

	// MinSG is the weighted strokes-gained floor for sg-heavy.
	MinSG float64 `json:"min_sg"`
	// MinValueScore is the value score floor for sg-value.
	MinValueScore float64 `json:"min_value_score"`
	// MinOddsGap is the American-odds cushion heavy-favorites requires.
	MinOddsGap float64 `json:"min_odds_gap"`

	// IncludeUnderdogs keeps players quoted at plus money. When false,
	// only favorites can qualify.
	IncludeUnderdogs bool `json:"include_underdogs"`
	// AllQualifiers keeps every qualifying player in a group instead of
	// only the top one.
	AllQualifiers bool `json:"all_qualifiers"`

	SortKey SortKey `json:"sort_key"`
}

// DefaultFilterOptions returns the documented defaults for a filter.
func DefaultFilterOptions(name FilterName) FilterOptions {
	opts := FilterOptions{
		Score:            DefaultScoreOptions(),
		MinSG:            0,
		MinValueScore:    0.05,
		MinOddsGap:       DefaultMinOddsGap,
		IncludeUnderdogs: true,
		AllQualifiers:    false,
	}
	switch name {
	case FilterSGHeavy:
		opts.SortKey = SortByWeightedSG
	case FilterSGValue:
		opts.SortKey = SortByValueScore
	case FilterHeavyFavorites:
		opts.SortKey = SortByOddsGap
		opts.IncludeUnderdogs = false
	}
	return opts
}

// FilterMeta explains a filter run: how many groups and players went in, how
// many survived each stage, and the options that produced the output. The
// consuming layer uses the counts to render "no qualifying players" instead
// of treating an empty result as an error.
type FilterMeta struct {
	Filter              FilterName    `json:"filter"`
	TotalGroups         int           `json:"total_groups"`
	TotalPlayers        int           `json:"total_players"`
	EligiblePlayers     int           `json:"eligible_players"`
	QualifiedPlayers    int           `json:"qualified_players"`
	GroupsWithQualifier int           `json:"groups_with_qualifier"`
	Summary             FieldSummary  `json:"summary"`
	Options             FilterOptions `json:"options"`
	GeneratedAt         time.Time     `json:"generated_at"`
}

// FilterResult is a flat ranked list of qualifying derived records plus the
// run metadata.
type FilterResult struct {
	Players []DerivedRecord `json:"players"`
	Meta    FilterMeta      `json:"meta"`
}

// RunFilter executes one of the matchup filters across a full field: group
// by matchup, score, qualify, keep the top qualifier per group (or all of
// them), and sort by the configured key. Groups contributing zero qualifiers
// are silently omitted; sparse data never errors.
func RunFilter(name FilterName, players []PlayerRecord, fitFactors map[int64]float64, opts FilterOptions, cache *BlendCache) (*FilterResult, error) {
	switch name {
	case FilterSGHeavy, FilterSGValue, FilterHeavyFavorites:
	default:
		return nil, badConfig("filter", fmt.Sprintf("%q is not recognized", name))
	}
	switch opts.SortKey {
	case SortByWeightedSG, SortByValueScore, SortByValueQuality, SortByOddsGap, SortByOdds:
	default:
		return nil, badConfig("sort key", fmt.Sprintf("%q is not recognized", opts.SortKey))
	}

	groupOrder, groups := groupField(players)

	derived, summary, err := ScoreField(players, fitFactors, opts.Score, cache)
	if err != nil {
		return nil, err
	}

	derivedByGroup := make(map[string][]DerivedRecord)
	for _, rec := range derived {
		derivedByGroup[rec.Player.GroupID] = append(derivedByGroup[rec.Player.GroupID], rec)
	}

	qualified := make([]DerivedRecord, 0, len(derived))
	groupsWithQualifier := 0

	for _, groupID := range groupOrder {
		recs := derivedByGroup[groupID]
		// A group needs at least two scored players to compare; a lone
		// survivor has nothing to beat.
		if len(recs) < 2 {
			continue
		}
		attachOddsGaps(recs, opts.Score.OddsFormat)

		var picks []DerivedRecord
		switch name {
		case FilterSGHeavy:
			picks = qualifySGHeavy(recs, opts)
		case FilterSGValue:
			picks = qualifySGValue(recs, opts)
		case FilterHeavyFavorites:
			picks = qualifyHeavyFavorite(recs, opts)
		}
		if len(picks) == 0 {
			continue
		}
		groupsWithQualifier++
		qualified = append(qualified, picks...)
	}

	sortRecords(qualified, opts.SortKey)

	return &FilterResult{
		Players: qualified,
		Meta: FilterMeta{
			Filter:              name,
			TotalGroups:         len(groups),
			TotalPlayers:        len(players),
			EligiblePlayers:     summary.EligiblePlayers,
			QualifiedPlayers:    len(qualified),
			GroupsWithQualifier: groupsWithQualifier,
			Summary:             summary,
			Options:             opts,
			GeneratedAt:         time.Now().UTC(),
		},
	}, nil
}

// groupField buckets players by matchup id, preserving first-seen order.
func groupField(players []PlayerRecord) ([]string, map[string][]PlayerRecord) {
	order := make([]string, 0)
	groups := make(map[string][]PlayerRecord)
	for _, p := range players {
		if _, seen := groups[p.GroupID]; !seen {
			order = append(order, p.GroupID)
		}
		groups[p.GroupID] = append(groups[p.GroupID], p)
	}
	return order, groups
}

// attachOddsGaps fills each record's OddsGap: the American-odds distance to
// the best competing price in the group. Positive for the favorite, negative
// for everyone else. Each price is read in its own record's format, so a
// group mixing quote formats still compares on the American scale.
func attachOddsGaps(recs []DerivedRecord, override OddsFormat) {
	american := make([]float64, len(recs))
	for i := range recs {
		format := effectiveFormat(override, recs[i].Player)
		american[i] = AmericanOdds(DecimalOdds(*recs[i].Player.Odds, format))
	}
	for i := range recs {
		bestOther := 0.0
		found := false
		for j := range recs {
			if j == i {
				continue
			}
			if !found || american[j] < bestOther {
				bestOther = american[j]
				found = true
			}
		}
		if found {
			recs[i].OddsGap = bestOther - american[i]
		}
	}
}

func qualifySGHeavy(recs []DerivedRecord, opts FilterOptions) []DerivedRecord {
	picks := make([]DerivedRecord, 0, len(recs))
	for _, rec := range recs {
		if rec.WeightedSG < opts.MinSG {
			continue
		}
		if !opts.IncludeUnderdogs && rec.OddsGap < 0 {
			continue
		}
		picks = append(picks, rec)
	}
	if opts.AllQualifiers || len(picks) == 0 {
		return picks
	}
	top := picks[0]
	for _, rec := range picks[1:] {
		if rec.WeightedSG > top.WeightedSG {
			top = rec
		}
	}
	return []DerivedRecord{top}
}

func qualifySGValue(recs []DerivedRecord, opts FilterOptions) []DerivedRecord {
	picks := make([]DerivedRecord, 0, len(recs))
	for _, rec := range recs {
		if rec.ValueScore < opts.MinValueScore {
			continue
		}
		if !opts.IncludeUnderdogs && rec.OddsGap < 0 {
			continue
		}
		picks = append(picks, rec)
	}
	if opts.AllQualifiers || len(picks) == 0 {
		return picks
	}
	top := picks[0]
	for _, rec := range picks[1:] {
		if rec.ValueScore > top.ValueScore {
			top = rec
		}
	}
	return []DerivedRecord{top}
}

// qualifyHeavyFavorite keeps the group's favorite when its cushion over the
// next best price clears the minimum gap. Only the favorite can qualify, so
// AllQualifiers has no effect here.
func qualifyHeavyFavorite(recs []DerivedRecord, opts FilterOptions) []DerivedRecord {
	favorite := recs[0]
	for _, rec := range recs[1:] {
		if rec.OddsGap > favorite.OddsGap {
			favorite = rec
		}
	}
	if favorite.OddsGap < opts.MinOddsGap {
		return nil
	}
	return []DerivedRecord{favorite}
}

// sortRecords orders the flat output. Each key documents its tiebreakers:
//
//	weighted_sg:   weighted SG desc, then odds gap desc, then value score desc
//	value_score:   value score desc, then value quality desc, then weighted SG desc
//	value_quality: value quality desc, then value score desc
//	odds_gap:      odds gap desc, then adjusted probability desc
//	odds:          strongest favorite first (adjusted probability desc)
func sortRecords(recs []DerivedRecord, key SortKey) {
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		switch key {
		case SortByWeightedSG:
			if a.WeightedSG != b.WeightedSG {
				return a.WeightedSG > b.WeightedSG
			}
			if a.OddsGap != b.OddsGap {
				return a.OddsGap > b.OddsGap
			}
			return a.ValueScore > b.ValueScore
		case SortByValueScore:
			if a.ValueScore != b.ValueScore {
				return a.ValueScore > b.ValueScore
			}
			if a.ValueQuality != b.ValueQuality {
				return a.ValueQuality > b.ValueQuality
			}
			return a.WeightedSG > b.WeightedSG
		case SortByValueQuality:
			if a.ValueQuality != b.ValueQuality {
				return a.ValueQuality > b.ValueQuality
			}
			return a.ValueScore > b.ValueScore
		case SortByOddsGap:
			if a.OddsGap != b.OddsGap {
				return a.OddsGap > b.OddsGap
			}
			return a.AdjustedProb > b.AdjustedProb
		case SortByOdds:
			return a.AdjustedProb > b.AdjustedProb
		}
		return false
	})
}
