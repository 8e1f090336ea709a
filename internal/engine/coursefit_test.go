package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFitSource returns canned scores and can fail or stall per player.
type fakeFitSource struct {
	scores  map[int64]float64
	failFor map[int64]bool
	delay   time.Duration
}

func (f *fakeFitSource) AnalyzePlayerCourseFit(ctx context.Context, playerID int64, eventName string) (*CourseFitResult, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.failFor[playerID] {
		return nil, errors.New("course fit service unavailable")
	}
	score, ok := f.scores[playerID]
	if !ok {
		return nil, nil
	}
	return &CourseFitResult{FitScore: score, FitGrade: "B"}, nil
}

func TestFitFactorFromScore(t *testing.T) {
	tests := []struct {
		score    float64
		expected float64
	}{
		{0, 0.5},
		{50, 1.0},
		{100, 1.5},
		{80, 1.3},
		{-10, 0.5}, // clamped
		{150, 1.5}, // clamped
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.expected, FitFactorFromScore(tt.score), 1e-9)
	}
}

func fitPlayers() []PlayerRecord {
	return []PlayerRecord{
		{PlayerID: 1, Name: "A", GroupID: "g1", EventName: "Test Open"},
		{PlayerID: 2, Name: "B", GroupID: "g1", EventName: "Test Open"},
		{PlayerID: 3, Name: "C", GroupID: "g1", EventName: "Test Open"},
	}
}

// One bad lookup must never abort the pass: the failing player degrades to
// the neutral factor while the others keep their real scores.
func TestCourseFitFactorsPartialFailure(t *testing.T) {
	src := &fakeFitSource{
		scores:  map[int64]float64{1: 80, 2: 60, 3: 40},
		failFor: map[int64]bool{2: true},
	}

	factors := CourseFitFactors(context.Background(), src, fitPlayers(), "Test Open", time.Second, logrus.New())
	require.Len(t, factors, 3)

	assert.InDelta(t, 1.3, factors[1], 1e-9)
	assert.Equal(t, NeutralFitFactor, factors[2], "failed lookup degrades to neutral")
	assert.InDelta(t, 0.9, factors[3], 1e-9)
}

func TestCourseFitFactorsAllNeutralCases(t *testing.T) {
	players := fitPlayers()

	t.Run("nil source", func(t *testing.T) {
		factors := CourseFitFactors(context.Background(), nil, players, "Test Open", time.Second, nil)
		for _, f := range factors {
			assert.Equal(t, NeutralFitFactor, f)
		}
	})

	t.Run("missing event name", func(t *testing.T) {
		src := &fakeFitSource{scores: map[int64]float64{1: 90}}
		factors := CourseFitFactors(context.Background(), src, players, "", time.Second, nil)
		for _, f := range factors {
			assert.Equal(t, NeutralFitFactor, f)
		}
	})

	t.Run("missing per-player result", func(t *testing.T) {
		src := &fakeFitSource{scores: map[int64]float64{1: 90}}
		factors := CourseFitFactors(context.Background(), src, players, "Test Open", time.Second, nil)
		assert.InDelta(t, 1.4, factors[1], 1e-9)
		assert.Equal(t, NeutralFitFactor, factors[2])
		assert.Equal(t, NeutralFitFactor, factors[3])
	})
}

// A big field with an instant source maximizes overlap between the launch
// loop and the lookup goroutines; run with -race to verify the map is never
// read and written at the same time.
func TestCourseFitFactorsLargeField(t *testing.T) {
	const n = 500
	scores := make(map[int64]float64, n)
	players := make([]PlayerRecord, 0, n)
	for i := int64(1); i <= n; i++ {
		scores[i] = 50
		players = append(players, PlayerRecord{PlayerID: i, GroupID: "g", EventName: "Test Open"})
	}
	src := &fakeFitSource{scores: scores}

	factors := CourseFitFactors(context.Background(), src, players, "Test Open", time.Second, nil)
	require.Len(t, factors, n)
	for id, f := range factors {
		assert.InDeltaf(t, 1.0, f, 1e-9, "player %d", id)
	}
}

func TestCourseFitFactorsTimeout(t *testing.T) {
	src := &fakeFitSource{
		scores: map[int64]float64{1: 80, 2: 60, 3: 40},
		delay:  200 * time.Millisecond,
	}

	start := time.Now()
	factors := CourseFitFactors(context.Background(), src, fitPlayers(), "Test Open", 20*time.Millisecond, logrus.New())
	elapsed := time.Since(start)

	for _, f := range factors {
		assert.Equal(t, NeutralFitFactor, f, "timed out lookups degrade to neutral")
	}
	// Lookups fan out concurrently, so the pass is bounded by one timeout,
	// not the sum of three.
	assert.Less(t, elapsed, 150*time.Millisecond)
}
