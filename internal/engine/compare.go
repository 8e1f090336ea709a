package engine

import (
	"fmt"
	"math"
	"sort"
)

// Comparison is the full set of head-to-head signals for one matchup group,
// consumed by the UI explanation panel. Every signal is independently nil
// when the group lacks the data to support it; no signal is ever fabricated
// from fewer than two data points.
type Comparison struct {
	GroupID      string              `json:"group_id"`
	PlayerCount  int                 `json:"player_count"`
	Odds         *OddsSignal         `json:"odds,omitempty"`
	SG           *SGSignal           `json:"sg,omitempty"`
	Dominance    *DominanceSignal    `json:"dominance,omitempty"`
	Disagreement *DisagreementSignal `json:"disagreement,omitempty"`
	Form         *FormSignal         `json:"form,omitempty"`
}

// OddsSignal reports the market's favorite and how clear the market is.
type OddsSignal struct {
	FavoriteID   int64  `json:"favorite_id"`
	FavoriteName string `json:"favorite_name"`
	// GapPoints is the American-odds distance between the favorite and the
	// best of the rest.
	GapPoints float64 `json:"gap_points"`
	HasGap    bool    `json:"has_gap"`
}

// SGSignal reports the strokes-gained leader from whichever season source
// covers more of the group.
type SGSignal struct {
	LeaderID   int64  `json:"leader_id"`
	LeaderName string `json:"leader_name"`
	// Gap is measured against the first competitor whose value differs by
	// more than rounding noise, so a tied runner-up never manufactures a
	// gap. A fully tied group reports 0.
	Gap    float64      `json:"gap"`
	Source SeasonSource `json:"source"`
}

// DominanceSignal reports a player who leads at least two of the four SG
// sub-categories by a meaningful margin.
type DominanceSignal struct {
	PlayerID   int64        `json:"player_id"`
	Name       string       `json:"name"`
	Categories []SGCategory `json:"categories"`
	// TotalGap sums the leads across dominated categories and breaks ties
	// between equally dominant players.
	TotalGap float64      `json:"total_gap"`
	Source   SeasonSource `json:"source"`
}

// DisagreementSignal reports whether the two season rating providers crown
// the same player.
type DisagreementSignal struct {
	Agrees bool `json:"agrees"`
	// Severity is "consensus" when both sources agree, otherwise "mild" or
	// "strong" depending on how far source B's leader outruns source A's
	// view of the same player (strong above 0.2, mild below).
	Severity          string  `json:"severity"`
	ProviderALeaderID int64   `json:"provider_a_leader_id"`
	ProviderBLeaderID int64   `json:"provider_b_leader_id"`
	BAdvantage        float64 `json:"b_advantage"`
}

// FormSignal reports live-round form: who is playing best today, and whether
// the market favorite is being outplayed on the leaderboard.
type FormSignal struct {
	BestTodayID   int64   `json:"best_today_id"`
	BestTodayName string  `json:"best_today_name"`
	TodayScore    float64 `json:"today_score"`
	// PositionMismatch fires when the odds favorite's tournament position
	// is numerically worse than another group member's.
	PositionMismatch bool `json:"position_mismatch"`
}

const (
	SeverityConsensus = "consensus"
	SeverityMild      = "mild"
	SeverityStrong    = "strong"
)

// Compare computes all comparative signals for a single matchup group. It is
// a pure function over the group and never looks at the wider field. Group
// size outside 2-3 is a caller bug and errors; sparse data inside a valid
// group just produces nil signals.
func Compare(group []PlayerRecord) (*Comparison, error) {
	if len(group) < 2 || len(group) > 3 {
		return nil, badConfig("group size", fmt.Sprintf("%d players, matchup groups hold 2 or 3", len(group)))
	}

	cmp := &Comparison{
		GroupID:     group[0].GroupID,
		PlayerCount: len(group),
	}

	cmp.Odds = oddsSignal(group)
	cmp.SG = sgSignal(group)
	cmp.Dominance = dominanceSignal(group)
	cmp.Disagreement = disagreementSignal(group)
	cmp.Form = formSignal(group, cmp.Odds)

	return cmp, nil
}

// oddsSignal sorts the players carrying usable odds from favorite to
// longshot by decimal equivalent and measures the favorite's cushion on the
// American scale.
func oddsSignal(group []PlayerRecord) *OddsSignal {
	type priced struct {
		player  PlayerRecord
		decimal float64
	}
	withOdds := make([]priced, 0, len(group))
	for _, p := range group {
		if !p.HasOdds() {
			continue
		}
		dec := DecimalOdds(*p.Odds, OddsAuto)
		if dec <= 1 {
			continue // invalid price, treat as unusable
		}
		withOdds = append(withOdds, priced{player: p, decimal: dec})
	}
	if len(withOdds) < 2 {
		return nil
	}

	sort.SliceStable(withOdds, func(i, j int) bool {
		return withOdds[i].decimal < withOdds[j].decimal
	})

	favorite := withOdds[0]
	runnerUp := withOdds[1]
	gap := AmericanOdds(runnerUp.decimal) - AmericanOdds(favorite.decimal)

	return &OddsSignal{
		FavoriteID:   favorite.player.PlayerID,
		FavoriteName: favorite.player.Name,
		GapPoints:    gap,
		HasGap:       gap >= DefaultMinOddsGap,
	}
}

// sgSignal ranks the group on season-long strokes gained, preferring
// whichever provider covers at least as many of the group's players.
func sgSignal(group []PlayerRecord) *SGSignal {
	coverageA, coverageB := 0, 0
	for _, p := range group {
		if p.SeasonA.Total != nil {
			coverageA++
		}
		if p.SeasonB.Total != nil {
			coverageB++
		}
	}

	source := SourceProviderA
	if coverageB > coverageA {
		source = SourceProviderB
	}

	type rated struct {
		player PlayerRecord
		value  float64
	}
	values := make([]rated, 0, len(group))
	for _, p := range group {
		total := p.SeasonA.Total
		if source == SourceProviderB {
			total = p.SeasonB.Total
		}
		if total != nil {
			values = append(values, rated{player: p, value: *total})
		}
	}
	if len(values) < 2 {
		return nil
	}

	sort.SliceStable(values, func(i, j int) bool {
		return values[i].value > values[j].value
	})

	leader := values[0]
	// Measure the gap against the first competitor genuinely behind the
	// leader, not a tied one.
	gap := 0.0
	for _, v := range values[1:] {
		if leader.value-v.value > SGTieThreshold {
			gap = leader.value - v.value
			break
		}
	}

	return &SGSignal{
		LeaderID:   leader.player.PlayerID,
		LeaderName: leader.player.Name,
		Gap:        gap,
		Source:     source,
	}
}

// dominanceSignal looks for a player who leads at least two of the four SG
// sub-categories by more than the minimum margin. It only runs when every
// group member has all four categories from the same source; partial
// coverage disqualifies the whole computation rather than biasing it.
func dominanceSignal(group []PlayerRecord) *DominanceSignal {
	source, lines := completeCategorySource(group)
	if lines == nil {
		return nil
	}

	type tally struct {
		categories []SGCategory
		totalGap   float64
	}
	tallies := make(map[int64]*tally)

	for _, cat := range Categories {
		leaderIdx := -1
		leaderVal := math.Inf(-1)
		runnerVal := math.Inf(-1)
		for i := range group {
			v := *lines[i].Category(cat)
			if v > leaderVal {
				runnerVal = leaderVal
				leaderVal = v
				leaderIdx = i
			} else if v > runnerVal {
				runnerVal = v
			}
		}
		lead := leaderVal - runnerVal
		if lead <= DefaultCategoryMinGap {
			continue
		}
		id := group[leaderIdx].PlayerID
		if tallies[id] == nil {
			tallies[id] = &tally{}
		}
		tallies[id].categories = append(tallies[id].categories, cat)
		tallies[id].totalGap += lead
	}

	var best *DominanceSignal
	for i := range group {
		t := tallies[group[i].PlayerID]
		if t == nil || len(t.categories) < DominantCategoryCount {
			continue
		}
		if best == nil || t.totalGap > best.TotalGap {
			best = &DominanceSignal{
				PlayerID:   group[i].PlayerID,
				Name:       group[i].Name,
				Categories: t.categories,
				TotalGap:   t.totalGap,
				Source:     source,
			}
		}
	}
	return best
}

// completeCategorySource returns the season source whose four sub-categories
// are fully populated for every group member, preferring provider A.
func completeCategorySource(group []PlayerRecord) (SeasonSource, []SGLine) {
	linesA := make([]SGLine, len(group))
	completeA := true
	for i, p := range group {
		linesA[i] = p.SeasonA
		if !p.SeasonA.Complete() {
			completeA = false
		}
	}
	if completeA {
		return SourceProviderA, linesA
	}

	linesB := make([]SGLine, len(group))
	for i, p := range group {
		linesB[i] = p.SeasonB
		if !p.SeasonB.Complete() {
			return "", nil
		}
	}
	return SourceProviderB, linesB
}

// disagreementSignal ranks the group once per season source and reports
// whether the two providers crown the same player.
func disagreementSignal(group []PlayerRecord) *DisagreementSignal {
	type dual struct {
		player PlayerRecord
		a, b   float64
	}
	both := make([]dual, 0, len(group))
	for _, p := range group {
		if p.SeasonA.Total != nil && p.SeasonB.Total != nil {
			both = append(both, dual{player: p, a: *p.SeasonA.Total, b: *p.SeasonB.Total})
		}
	}
	if len(both) < 2 {
		return nil
	}

	leaderA := both[0]
	leaderB := both[0]
	for _, d := range both[1:] {
		if d.a > leaderA.a {
			leaderA = d
		}
		if d.b > leaderB.b {
			leaderB = d
		}
	}

	if leaderA.player.PlayerID == leaderB.player.PlayerID {
		return &DisagreementSignal{
			Agrees:            true,
			Severity:          SeverityConsensus,
			ProviderALeaderID: leaderA.player.PlayerID,
			ProviderBLeaderID: leaderB.player.PlayerID,
		}
	}

	// How much further source B rates its own leader than source A does.
	// Anything under the strong threshold is reported as mild, including
	// sub-0.1 splits where the sources barely differ.
	advantage := leaderB.b - leaderB.a
	severity := SeverityMild
	if advantage > 0.2 {
		severity = SeverityStrong
	}

	return &DisagreementSignal{
		Agrees:            false,
		Severity:          severity,
		ProviderALeaderID: leaderA.player.PlayerID,
		ProviderBLeaderID: leaderB.player.PlayerID,
		BAdvantage:        advantage,
	}
}

// formSignal reports who is scoring best in the current round and whether
// the market favorite sits below another group member on the leaderboard.
func formSignal(group []PlayerRecord, odds *OddsSignal) *FormSignal {
	type live struct {
		player PlayerRecord
		today  float64
	}
	withToday := make([]live, 0, len(group))
	for _, p := range group {
		if p.TodayScore != nil {
			withToday = append(withToday, live{player: p, today: *p.TodayScore})
		}
	}
	if len(withToday) < 2 {
		return nil
	}

	best := withToday[0]
	for _, l := range withToday[1:] {
		// Lower is better: today scores are strokes relative to par.
		if l.today < best.today {
			best = l
		}
	}

	signal := &FormSignal{
		BestTodayID:   best.player.PlayerID,
		BestTodayName: best.player.Name,
		TodayScore:    best.today,
	}

	if odds != nil {
		var favoritePos *int
		for _, p := range group {
			if p.PlayerID == odds.FavoriteID {
				favoritePos = p.Position
			}
		}
		if favoritePos != nil {
			for _, p := range group {
				if p.PlayerID != odds.FavoriteID && p.Position != nil && *favoritePos > *p.Position {
					signal.PositionMismatch = true
					break
				}
			}
		}
	}

	return signal
}
