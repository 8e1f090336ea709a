package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// DataGolfClient fetches matchup odds and skill ratings from the Data Golf API
type DataGolfClient struct {
	httpClient  *http.Client
	logger      *logrus.Logger
	apiKey      string
	baseURL     string
	rateLimiter *rate.Limiter
}

// NewDataGolfClient creates a Data Golf client. requestsPerSecond caps the
// outbound request rate across all callers sharing the client.
func NewDataGolfClient(apiKey string, requestsPerSecond int, logger *logrus.Logger) *DataGolfClient {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 10
	}
	return &DataGolfClient{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:      logger,
		apiKey:      apiKey,
		baseURL:     "https://feeds.datagolf.com",
		rateLimiter: rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
	}
}

// Data Golf response structures

type DataGolfMatchupResponse struct {
	EventName  string            `json:"event_name"`
	LastUpdate string            `json:"last_updated"`
	MatchList  []DataGolfMatchup `json:"match_list"`
	RoundNum   int               `json:"round_num"`
	Tour       string            `json:"tour"`
}

type DataGolfMatchup struct {
	Ties    string          `json:"ties"`
	Type    string          `json:"type"` // "2ball" or "3ball"
	Players []DataGolfEntry `json:"players"`
}

type DataGolfEntry struct {
	PlayerID   int64    `json:"dg_id"`
	PlayerName string   `json:"player_name"`
	Odds       *float64 `json:"odds"`
	OddsFormat string   `json:"odds_format"`
}

type DataGolfSkillResponse struct {
	LastUpdate string          `json:"last_updated"`
	Players    []DataGolfSkill `json:"players"`
}

type DataGolfSkill struct {
	PlayerID    int64    `json:"dg_id"`
	PlayerName  string   `json:"player_name"`
	Country     string   `json:"country"`
	SGTotal     *float64 `json:"sg_total"`
	SGOffTee    *float64 `json:"sg_ott"`
	SGApproach  *float64 `json:"sg_app"`
	SGAroundGrn *float64 `json:"sg_arg"`
	SGPutting   *float64 `json:"sg_putt"`
}

type DataGolfLiveStatsResponse struct {
	EventName  string             `json:"event_name"`
	CourseName string             `json:"course_name"`
	Players    []DataGolfLiveStat `json:"live_stats"`
}

type DataGolfLiveStat struct {
	PlayerID    int64    `json:"dg_id"`
	PlayerName  string   `json:"player_name"`
	Position    *int     `json:"position"`
	Today       *float64 `json:"today"`
	Thru        int      `json:"thru"`
	Round       int      `json:"round"`
	SGTotal     *float64 `json:"sg_total"`
	SGOffTee    *float64 `json:"sg_ott"`
	SGApproach  *float64 `json:"sg_app"`
	SGAroundGrn *float64 `json:"sg_arg"`
	SGPutting   *float64 `json:"sg_putt"`
}

// GetMatchups fetches the current 2-ball or 3-ball markets for a tour.
// matchType is "round_matchups" or "3_balls".
func (c *DataGolfClient) GetMatchups(ctx context.Context, tour, matchType string) (*DataGolfMatchupResponse, error) {
	params := url.Values{}
	params.Set("tour", tour)
	params.Set("market", matchType)
	params.Set("odds_format", "decimal")

	var resp DataGolfMatchupResponse
	if err := c.get(ctx, "/betting-tools/matchups", params, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch matchups: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"component": "datagolf",
		"event":     resp.EventName,
		"round":     resp.RoundNum,
		"markets":   len(resp.MatchList),
	}).Info("Fetched matchup markets")

	return &resp, nil
}

// GetSkillRatings fetches season-long strokes gained ratings for all ranked players
func (c *DataGolfClient) GetSkillRatings(ctx context.Context) (*DataGolfSkillResponse, error) {
	params := url.Values{}
	params.Set("display", "value")

	var resp DataGolfSkillResponse
	if err := c.get(ctx, "/preds/skill-ratings", params, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch skill ratings: %w", err)
	}
	return &resp, nil
}

// GetLiveStats fetches in-tournament strokes gained and leaderboard state
func (c *DataGolfClient) GetLiveStats(ctx context.Context, tour string) (*DataGolfLiveStatsResponse, error) {
	params := url.Values{}
	params.Set("tour", tour)
	params.Set("stats", "sg_total,sg_ott,sg_app,sg_arg,sg_putt")
	params.Set("round", "event_cumulative")

	var resp DataGolfLiveStatsResponse
	if err := c.get(ctx, "/preds/live-tournament-stats", params, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch live stats: %w", err)
	}
	return &resp, nil
}

func (c *DataGolfClient) get(ctx context.Context, path string, params url.Values, dest interface{}) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	params.Set("key", c.apiKey)
	params.Set("file_format", "json")
	reqURL := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
