package engine

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// CourseFitResult is what the external course-fit service reports for one
// player at one event. FitScore is a 0-100 rating of how well the player's
// skill profile matches the course.
type CourseFitResult struct {
	FitScore    float64            `json:"fit_score"`
	FitGrade    string             `json:"fit_grade"`
	CategoryFit map[string]float64 `json:"category_fit,omitempty"`
}

// CourseFitSource is the capability the engine calls to obtain fit scores.
// Implementations live outside the engine; the HTTP adapter wraps the call
// in a circuit breaker and its own timeout.
type CourseFitSource interface {
	AnalyzePlayerCourseFit(ctx context.Context, playerID int64, eventName string) (*CourseFitResult, error)
}

// FitFactorFromScore converts a 0-100 fit score to a multiplicative factor
// in [0.5, 1.5], where 1.0 is neutral.
func FitFactorFromScore(score float64) float64 {
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return 0.5 + score/100
}

// CourseFitFactors looks up the fit factor for every player in the field,
// keyed by player id. Lookups are independent, so they fan out concurrently
// and each call is bounded by timeout.
//
// This is the one place the core touches a non-deterministic dependency, and
// the contract is to degrade gracefully: a failed, missing or timed-out
// lookup yields the neutral factor 1.0 for that player and never aborts the
// pass. A nil source or empty event name short-circuits to all-neutral.
func CourseFitFactors(ctx context.Context, src CourseFitSource, players []PlayerRecord, eventName string, timeout time.Duration, logger *logrus.Logger) map[int64]float64 {
	factors := make(map[int64]float64, len(players))
	for _, p := range players {
		factors[p.PlayerID] = NeutralFitFactor
	}
	if src == nil || eventName == "" {
		return factors
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	// Snapshot the ids before spawning: the goroutines write the map, so it
	// must not be ranged while they run.
	ids := make([]int64, 0, len(factors))
	for id := range factors {
		ids = append(ids, id)
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, id := range ids {
		wg.Add(1)
		go func(playerID int64) {
			defer wg.Done()

			callCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			result, err := src.AnalyzePlayerCourseFit(callCtx, playerID, eventName)
			if err != nil {
				if logger != nil {
					logger.WithFields(logrus.Fields{
						"player_id": playerID,
						"event":     eventName,
					}).WithError(err).Debug("Course fit lookup failed, using neutral factor")
				}
				return
			}
			if result == nil {
				return
			}

			mu.Lock()
			factors[playerID] = FitFactorFromScore(result.FitScore)
			mu.Unlock()
		}(id)
	}
	wg.Wait()

	return factors
}
