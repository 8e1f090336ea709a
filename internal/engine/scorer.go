package engine

import (
	"fmt"
)

// ScoreOptions configures one value-scoring pass over a matchup field.
type ScoreOptions struct {
	Blend BlendOptions `json:"blend"`

	// CourseFitWeight scales how much the course fit factor moves the
	// value score. Zero disables the adjustment entirely.
	CourseFitWeight float64 `json:"course_fit_weight"`

	// MinOdds and MaxOdds bound the American-odds window a player must
	// fall inside to be scored at all.
	MinOdds float64 `json:"min_odds"`
	MaxOdds float64 `json:"max_odds"`

	// RemoveVig rescales implied probabilities within each matchup group
	// before ranking them, stripping the bookmaker margin.
	RemoveVig bool `json:"remove_vig"`

	// OddsFormat overrides odds format auto-detection when the caller
	// knows what the provider quotes.
	OddsFormat OddsFormat `json:"odds_format"`
}

// DefaultScoreOptions returns the documented scoring defaults.
func DefaultScoreOptions() ScoreOptions {
	return ScoreOptions{
		Blend:           DefaultBlendOptions(),
		CourseFitWeight: DefaultCourseFitWeight,
		MinOdds:         -10000,
		MaxOdds:         10000,
		RemoveVig:       true,
		OddsFormat:      OddsAuto,
	}
}

func (o ScoreOptions) validate() error {
	if err := o.Blend.validate(); err != nil {
		return err
	}
	if o.MinOdds > o.MaxOdds {
		return badConfig("odds window", fmt.Sprintf("min %v exceeds max %v", o.MinOdds, o.MaxOdds))
	}
	switch o.OddsFormat {
	case OddsAuto, OddsAmerican, OddsDecimal, OddsFractional, "":
	default:
		return badConfig("odds format", fmt.Sprintf("%q is not recognized", o.OddsFormat))
	}
	return nil
}

// FieldSummary explains what happened to every player in a scoring pass, so
// the consuming layer can render "no qualifying players" instead of a hard
// error when data is sparse.
type FieldSummary struct {
	TotalPlayers    int `json:"total_players"`
	EligiblePlayers int `json:"eligible_players"`

	SkippedNoSG       int `json:"skipped_no_sg"`
	SkippedNoOdds     int `json:"skipped_no_odds"`
	SkippedOddsWindow int `json:"skipped_odds_window"`
}

// ScoreField runs the full value-scoring pipeline over a matchup field:
// blend, vig-adjusted implied probability, percentile ranks, course fit
// adjustment, value score and quality.
//
// Only eligible players come back: a player must carry both usable
// strokes-gained data and a price inside the configured odds window.
// Ineligible players are counted in the summary, never scored as zero.
// fitFactors may be nil, in which case every player scores at the neutral
// factor.
func ScoreField(players []PlayerRecord, fitFactors map[int64]float64, opts ScoreOptions, cache *BlendCache) ([]DerivedRecord, FieldSummary, error) {
	summary := FieldSummary{TotalPlayers: len(players)}
	if err := opts.validate(); err != nil {
		return nil, summary, err
	}

	adjusted := adjustedProbabilities(players, opts)

	type candidate struct {
		record DerivedRecord
	}
	eligible := make([]candidate, 0, len(players))

	for _, p := range players {
		weighted, method, err := WeightedSG(p, opts.Blend, cache)
		if err != nil {
			return nil, summary, err
		}
		if weighted == ExcludedSG {
			summary.SkippedNoSG++
			continue
		}
		if !p.HasOdds() {
			summary.SkippedNoOdds++
			continue
		}

		format := effectiveFormat(opts.OddsFormat, p)
		american := AmericanOdds(DecimalOdds(*p.Odds, format))
		if american < opts.MinOdds || american > opts.MaxOdds {
			summary.SkippedOddsWindow++
			continue
		}

		raw := ImpliedProbability(*p.Odds, format)
		adj, ok := adjusted[p.PlayerID]
		if !ok {
			adj = raw
		}

		factor := NeutralFitFactor
		if f, ok := fitFactors[p.PlayerID]; ok {
			factor = f
		}

		eligible = append(eligible, candidate{record: DerivedRecord{
			Player:          p,
			WeightedSG:      weighted,
			ImpliedProb:     raw,
			AdjustedProb:    adj,
			CourseFitFactor: factor,
			Method:          method,
		}})
	}

	summary.EligiblePlayers = len(eligible)
	if len(eligible) == 0 {
		return []DerivedRecord{}, summary, nil
	}

	// Percentile ranks are relative to the eligible field only.
	sgValues := make([]*float64, len(eligible))
	probValues := make([]*float64, len(eligible))
	for i := range eligible {
		sg := eligible[i].record.WeightedSG
		prob := eligible[i].record.AdjustedProb
		sgValues[i] = &sg
		probValues[i] = &prob
	}
	perfPcts := Percentiles(sgValues)
	oddsPcts := Percentiles(probValues)

	out := make([]DerivedRecord, 0, len(eligible))
	for i := range eligible {
		rec := eligible[i].record
		rec.PerformancePct = perfPcts[i]
		rec.OddsPct = oddsPcts[i]

		base := rec.PerformancePct - rec.OddsPct
		adjustment := (rec.CourseFitFactor - NeutralFitFactor) * opts.CourseFitWeight
		rec.ValueScore = base * (1 + adjustment)

		rec.Confidence = confidence(rec.Player, opts)
		rec.ValueQuality = rec.ValueScore * rec.Confidence.Overall

		out = append(out, rec)
	}

	return out, summary, nil
}

// effectiveFormat resolves the odds format for one record. An explicit
// caller override wins; otherwise a valid per-record format from persistence
// applies; anything else means auto-detect.
func effectiveFormat(override OddsFormat, p PlayerRecord) OddsFormat {
	if override != "" && override != OddsAuto {
		return override
	}
	switch p.OddsFormat {
	case OddsAmerican, OddsDecimal, OddsFractional:
		return p.OddsFormat
	}
	return OddsAuto
}

// adjustedProbabilities computes per-player implied probabilities with the
// bookmaker margin removed within each matchup group. When vig removal is
// disabled the raw probabilities come back unchanged.
func adjustedProbabilities(players []PlayerRecord, opts ScoreOptions) map[int64]float64 {
	byGroup := make(map[string][]int)
	for i, p := range players {
		if p.HasOdds() {
			byGroup[p.GroupID] = append(byGroup[p.GroupID], i)
		}
	}

	out := make(map[int64]float64)
	for _, idxs := range byGroup {
		probs := make([]float64, len(idxs))
		for j, i := range idxs {
			probs[j] = ImpliedProbability(*players[i].Odds, effectiveFormat(opts.OddsFormat, players[i]))
		}
		if opts.RemoveVig {
			probs = RemoveVig(probs)
		}
		for j, i := range idxs {
			out[players[i].PlayerID] = probs[j]
		}
	}
	return out
}

// confidence grades how much to trust a derived record. Performance
// confidence rewards having tournament data, season data, and especially
// both; odds confidence rewards a price in a sane numeric range whose
// format detection is unambiguous. Both cap at 1.
func confidence(p PlayerRecord, opts ScoreOptions) Confidence {
	perf := 0.2
	hasTournament := p.Tournament.Total != nil
	hasSeason := seasonValue(p.SeasonA.Total, p.SeasonB.Total, opts.Blend.SeasonSource) != nil
	if hasTournament {
		perf += 0.4
	}
	if hasSeason {
		perf += 0.3
	}
	if hasTournament && hasSeason {
		perf += 0.1
	}
	if perf > 1 {
		perf = 1
	}

	odds := 0.0
	if p.HasOdds() {
		odds = 0.2
		format := effectiveFormat(opts.OddsFormat, p)
		resolved := format
		if resolved == OddsAuto {
			resolved = DetectFormat(*p.Odds)
		}
		if resolved == DetectFormat(*p.Odds) {
			odds += 0.3
		}
		if prob := ImpliedProbability(*p.Odds, format); prob > 0.05 && prob < 0.95 {
			odds += 0.5
		}
		if odds > 1 {
			odds = 1
		}
	}

	return Confidence{
		Performance: perf,
		Odds:        odds,
		Overall:     (perf + odds) / 2,
	}
}
