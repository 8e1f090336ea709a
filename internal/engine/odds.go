package engine

import (
	"math"
)

// DetectFormat guesses the format of a raw odds value.
//
// The heuristic is the contract, not a bug: values below 0 or at/above 100
// are American, values in [1, 50] are decimal, anything else is treated as a
// fractional multiplier. Ambiguous prices exist (+110 American vs decimal
// 1.10 scale differently), so callers that know the format should pass it
// explicitly instead of relying on auto-detection.
func DetectFormat(odds float64) OddsFormat {
	if odds < 0 || odds >= 100 {
		return OddsAmerican
	}
	if odds >= 1 && odds <= 50 {
		return OddsDecimal
	}
	return OddsFractional
}

// ImpliedProbability converts a raw odds value to an implied win probability
// in [0, 1]. Pass OddsAuto to use DetectFormat.
//
// Malformed values degrade to 0 (decimal odds at or below 1) or 0.5 (even
// American odds) rather than failing; callers must treat a 0 probability as
// low confidence, not as missing data.
func ImpliedProbability(odds float64, format OddsFormat) float64 {
	if format == OddsAuto || format == "" {
		format = DetectFormat(odds)
	}

	switch format {
	case OddsAmerican:
		return americanToProbability(odds)
	case OddsDecimal:
		if odds <= 1 {
			return 0 // invalid decimal price
		}
		return 1 / odds
	case OddsFractional:
		if odds <= -1 {
			return 0
		}
		return 1 / (odds + 1)
	}
	return 0
}

func americanToProbability(odds float64) float64 {
	if odds == 0 {
		// Even money; no bookmaker writes it this way but tolerate it.
		return 0.5
	}
	if odds > 0 {
		return 100 / (odds + 100)
	}
	return math.Abs(odds) / (math.Abs(odds) + 100)
}

// RemoveVig rescales a group of competing implied probabilities so they sum
// to exactly 1, removing the bookmaker margin.
//
// When the raw probabilities already sum to 1 or less there is no vig to
// remove and the input is returned unchanged. That deliberately leaves thin
// or one-sided markets under-normalized; reproducing the production behavior
// matters more than correcting it.
func RemoveVig(probabilities []float64) []float64 {
	sum := 0.0
	for _, p := range probabilities {
		sum += p
	}

	out := make([]float64, len(probabilities))
	if sum <= 1 {
		copy(out, probabilities)
		return out
	}
	for i, p := range probabilities {
		out[i] = p / sum
	}
	return out
}

// DecimalOdds converts a raw odds value to its decimal equivalent, used to
// order players from favorite to longshot regardless of quoted format.
// Invalid prices return 0, which sorts ahead of every real price and is
// filtered by callers.
func DecimalOdds(odds float64, format OddsFormat) float64 {
	if format == OddsAuto || format == "" {
		format = DetectFormat(odds)
	}

	switch format {
	case OddsAmerican:
		if odds == 0 {
			return 2
		}
		if odds > 0 {
			return 1 + odds/100
		}
		return 1 + 100/math.Abs(odds)
	case OddsDecimal:
		return odds
	case OddsFractional:
		return odds + 1
	}
	return 0
}

// AmericanOdds converts a decimal price back to American odds. Prices at or
// above even money map to the positive scale, favorites to the negative one.
func AmericanOdds(decimal float64) float64 {
	if decimal <= 1 {
		return 0
	}
	if decimal >= 2 {
		return (decimal - 1) * 100
	}
	return -100 / (decimal - 1)
}
