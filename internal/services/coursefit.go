package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/greg-czaplicki/parlay-picker/internal/engine"
)

// CourseFitService queries the course-fit analysis service over HTTP. It
// implements engine.CourseFitSource, so a broken or slow upstream only ever
// degrades scoring to neutral fit factors.
type CourseFitService struct {
	httpClient *http.Client
	baseURL    string
	breaker    *gobreaker.CircuitBreaker
	logger     *logrus.Logger
}

func NewCourseFitService(baseURL string, threshold int, timeout time.Duration, logger *logrus.Logger) *CourseFitService {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        "course-fit",
		MaxRequests: uint32(threshold),
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"component": "circuit_breaker",
				"service":   name,
				"from":      from.String(),
				"to":        to.String(),
			}).Info("Circuit breaker state changed")
		},
	}

	return &CourseFitService{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		breaker:    gobreaker.NewCircuitBreaker(settings),
		logger:     logger,
	}
}

type courseFitResponse struct {
	PlayerID    int64              `json:"player_id"`
	EventName   string             `json:"event_name"`
	FitScore    float64            `json:"fit_score"`
	FitGrade    string             `json:"fit_grade"`
	CategoryFit map[string]float64 `json:"category_fit,omitempty"`
}

// AnalyzePlayerCourseFit fetches one player's fit score for an event's course.
// Errors are returned to the caller, which treats them as "no adjustment".
func (s *CourseFitService) AnalyzePlayerCourseFit(ctx context.Context, playerID int64, eventName string) (*engine.CourseFitResult, error) {
	if s.baseURL == "" {
		return nil, fmt.Errorf("course fit service not configured")
	}

	result, err := s.breaker.Execute(func() (interface{}, error) {
		return s.fetch(ctx, playerID, eventName)
	})
	if err != nil {
		return nil, err
	}

	resp := result.(*courseFitResponse)
	return &engine.CourseFitResult{
		FitScore:    resp.FitScore,
		FitGrade:    resp.FitGrade,
		CategoryFit: resp.CategoryFit,
	}, nil
}

func (s *CourseFitService) fetch(ctx context.Context, playerID int64, eventName string) (*courseFitResponse, error) {
	params := url.Values{}
	params.Set("player_id", fmt.Sprintf("%d", playerID))
	params.Set("event", eventName)
	reqURL := s.baseURL + "/v1/course-fit?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("course fit request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// Upstream has no profile for this player; not a breaker-worthy
		// failure, but still no usable result.
		return nil, fmt.Errorf("no course fit profile for player %d", playerID)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from course fit service", resp.StatusCode)
	}

	var body courseFitResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode course fit response: %w", err)
	}
	return &body, nil
}

// BreakerState exposes the circuit breaker state for health reporting
func (s *CourseFitService) BreakerState() string {
	return s.breaker.State().String()
}
