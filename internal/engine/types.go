// Package engine implements the matchup analytics and value scoring core:
// odds normalization, strokes-gained blending, percentile ranking, composite
// value scoring, group comparison and the matchup filter pipeline.
//
// Everything in this package is pure, synchronous and request-scoped. The
// engine never touches the network or the database; callers hand it player
// records already joined from persistence and it hands back derived records.
package engine

import (
	"fmt"
)

// OddsFormat identifies how a raw odds value should be interpreted.
type OddsFormat string

const (
	// OddsAuto asks the engine to guess the format. See DetectFormat for
	// the heuristic boundaries; guessing is best-effort by design.
	OddsAuto       OddsFormat = "auto"
	OddsAmerican   OddsFormat = "american"
	OddsDecimal    OddsFormat = "decimal"
	OddsFractional OddsFormat = "fractional"
)

// BlendMode selects how tournament and season strokes-gained are combined.
type BlendMode string

const (
	// BlendRecent weights live tournament form heavily (85/15 split).
	BlendRecent BlendMode = "recent"
	// BlendExtended blends linearly using a caller-supplied tournament weight.
	BlendExtended BlendMode = "extended"
	// BlendSeason favors season-long data (25/75 split).
	BlendSeason BlendMode = "season"
)

// SeasonSource selects which season-long skill rating provider feeds the blend.
type SeasonSource string

const (
	SourceProviderA SeasonSource = "provider_a"
	SourceProviderB SeasonSource = "provider_b"
	// SourceAggregate averages both providers when both exist, otherwise
	// uses whichever one does.
	SourceAggregate SeasonSource = "aggregate"
)

// SGCategory is one of the four strokes-gained sub-categories.
type SGCategory string

const (
	CategoryOffTee      SGCategory = "off_tee"
	CategoryApproach    SGCategory = "approach"
	CategoryAroundGreen SGCategory = "around_green"
	CategoryPutting     SGCategory = "putting"
)

// Categories lists the four SG sub-categories in display order.
var Categories = []SGCategory{CategoryOffTee, CategoryApproach, CategoryAroundGreen, CategoryPutting}

// ExcludedSG is the sentinel returned by the blender when a hard data-source
// requirement is not met. It is low enough that the player can never qualify
// for any filter.
const ExcludedSG = -999.0

// Fixed comparison constants carried over from the production scoring rules.
// They are exposed as tunable defaults, not asserted as optimal.
const (
	// DefaultMinOddsGap is the American-odds distance at which a group is
	// considered to have a meaningful favorite.
	DefaultMinOddsGap = 5.0
	// DefaultCategoryMinGap is the minimum per-category lead over the
	// runner-up before a category counts as dominated.
	DefaultCategoryMinGap = 0.05
	// DominantCategoryCount is how many of the four categories a player
	// must lead to be reported as the group's dominant player.
	DominantCategoryCount = 2
	// SGTieThreshold is the rounding-noise band inside which two SG values
	// are treated as tied.
	SGTieThreshold = 0.01
	// DefaultCourseFitWeight scales the course fit adjustment applied to
	// the base value score.
	DefaultCourseFitWeight = 0.2
	// NeutralFitFactor is the course fit factor used when no fit data is
	// available; it leaves the value score unchanged.
	NeutralFitFactor = 1.0
)

// SGLine holds a strokes-gained total plus the four sub-categories. All
// fields are independently nullable; a nil pointer means the provider did
// not report the stat.
type SGLine struct {
	Total       *float64 `json:"total"`
	OffTee      *float64 `json:"off_tee"`
	Approach    *float64 `json:"approach"`
	AroundGreen *float64 `json:"around_green"`
	Putting     *float64 `json:"putting"`
}

// Category returns the pointer for one sub-category.
func (l SGLine) Category(cat SGCategory) *float64 {
	switch cat {
	case CategoryOffTee:
		return l.OffTee
	case CategoryApproach:
		return l.Approach
	case CategoryAroundGreen:
		return l.AroundGreen
	case CategoryPutting:
		return l.Putting
	}
	return nil
}

// Complete reports whether all four sub-categories are present.
func (l SGLine) Complete() bool {
	return l.OffTee != nil && l.Approach != nil && l.AroundGreen != nil && l.Putting != nil
}

// PlayerRecord is one player's row in a matchup field snapshot. Records are
// immutable inputs: the engine derives new fields but never mutates odds or
// raw stats.
type PlayerRecord struct {
	PlayerID  int64  `json:"player_id"`
	Name      string `json:"name"`
	GroupID   string `json:"group_id"`
	EventName string `json:"event_name,omitempty"`
	RoundNum  int    `json:"round_num,omitempty"`

	// Odds is the raw bookmaker price. The format is ambiguous until
	// normalized; nil means no price was offered.
	Odds *float64 `json:"odds"`
	// OddsFormat is the format the provider quoted the price in, when
	// known. Empty or unrecognized values fall back to auto-detection; an
	// explicit ScoreOptions override beats it.
	OddsFormat OddsFormat `json:"odds_format,omitempty"`

	// Tournament holds in-tournament strokes gained.
	Tournament SGLine `json:"tournament"`
	// SeasonA and SeasonB hold season-long strokes gained from two
	// independent rating providers.
	SeasonA SGLine `json:"season_a"`
	SeasonB SGLine `json:"season_b"`

	// TodayScore and Position come from the live leaderboard.
	TodayScore *float64 `json:"today_score,omitempty"`
	Position   *int     `json:"position,omitempty"`

	// Display fields carried from upstream, passed through untouched.
	ValueRating     *float64 `json:"value_rating,omitempty"`
	ConfidenceScore *float64 `json:"confidence_score,omitempty"`
}

// HasOdds reports whether the record carries a usable price.
func (p PlayerRecord) HasOdds() bool {
	return p.Odds != nil
}

// HasSG reports whether the record carries any usable strokes-gained total.
func (p PlayerRecord) HasSG() bool {
	return p.Tournament.Total != nil || p.SeasonA.Total != nil || p.SeasonB.Total != nil
}

// Confidence breaks down how much the scorer trusts a derived record.
type Confidence struct {
	Performance float64 `json:"performance"`
	Odds        float64 `json:"odds"`
	Overall     float64 `json:"overall"`
}

// DerivedRecord wraps a player record plus the fixed set of computed fields.
// It replaces the ad-hoc field merging the UI previously relied on: every
// derived attribute lives here and nowhere else.
type DerivedRecord struct {
	Player PlayerRecord `json:"player"`

	WeightedSG     float64 `json:"weighted_sg"`
	PerformancePct float64 `json:"performance_pct"`

	ImpliedProb  float64 `json:"implied_prob"`
	AdjustedProb float64 `json:"adjusted_prob"`
	OddsPct      float64 `json:"odds_pct"`

	CourseFitFactor float64 `json:"course_fit_factor"`

	ValueScore   float64    `json:"value_score"`
	ValueQuality float64    `json:"value_quality"`
	Confidence   Confidence `json:"confidence"`

	// OddsGap is only populated by the heavy-favorites filter: the
	// American-odds distance between this player and the next best price
	// in the group.
	OddsGap float64 `json:"odds_gap,omitempty"`

	// Method is a human-readable tag describing how WeightedSG was
	// computed, e.g. "recent 85/15 blend" or "season only (no tournament data)".
	Method string `json:"method"`
}

// ErrBadConfig marks caller bugs: out-of-range weights, unknown enum values.
// This is the only error class the pure computation path raises; bad data
// degrades, bad configuration fails fast.
type ErrBadConfig struct {
	Field  string
	Reason string
}

func (e *ErrBadConfig) Error() string {
	return fmt.Sprintf("invalid engine configuration: %s %s", e.Field, e.Reason)
}

func badConfig(field, reason string) error {
	return &ErrBadConfig{Field: field, Reason: reason}
}

func float(v float64) *float64 { return &v }
