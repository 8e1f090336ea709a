package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/greg-czaplicki/parlay-picker/internal/engine"
)

// EventStatus represents the status of a golf event
type EventStatus string

const (
	EventScheduled  EventStatus = "scheduled"
	EventInProgress EventStatus = "in_progress"
	EventCompleted  EventStatus = "completed"
	EventCancelled  EventStatus = "cancelled"
)

// MatchupType distinguishes two-player and three-player betting markets
type MatchupType string

const (
	MatchupTwoBall   MatchupType = "2ball"
	MatchupThreeBall MatchupType = "3ball"
)

// Event represents a golf tournament carrying betting markets
type Event struct {
	ID           uuid.UUID   `gorm:"type:uuid;primary_key" json:"id"`
	ExternalID   string      `gorm:"uniqueIndex;not null" json:"external_id"`
	Name         string      `gorm:"not null" json:"name"`
	Tour         string      `gorm:"index" json:"tour"`
	CourseName   string      `json:"course_name"`
	StartDate    time.Time   `gorm:"index" json:"start_date"`
	EndDate      time.Time   `json:"end_date"`
	Status       EventStatus `gorm:"type:varchar(50);default:'scheduled';index" json:"status"`
	CurrentRound int         `gorm:"default:0" json:"current_round"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`

	// Associations
	Matchups []MatchupGroup `gorm:"foreignKey:EventID" json:"matchups,omitempty"`
}

// TableName specifies the table name for GORM
func (Event) TableName() string {
	return "events"
}

// BeforeCreate generates the id client-side so non-postgres databases work
func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// MatchupGroup represents one 2- or 3-ball betting market within an event
type MatchupGroup struct {
	ID         uuid.UUID   `gorm:"type:uuid;primary_key" json:"id"`
	EventID    uuid.UUID   `gorm:"not null;index" json:"event_id"`
	Event      *Event      `gorm:"foreignKey:EventID" json:"event,omitempty"`
	ExternalID string      `gorm:"uniqueIndex;not null" json:"external_id"`
	Type       MatchupType `gorm:"type:varchar(10);not null" json:"type"`
	RoundNum   int         `gorm:"not null;check:round_num BETWEEN 1 AND 4" json:"round_num"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`

	// Associations
	Players []MatchupPlayer `gorm:"foreignKey:GroupID" json:"players,omitempty"`
}

// TableName specifies the table name for GORM
func (MatchupGroup) TableName() string {
	return "matchup_groups"
}

func (g *MatchupGroup) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// MatchupPlayer is one player's row within a matchup market: odds plus
// tournament and season strokes-gained stats from two rating providers.
// Nullable columns mirror what the provider actually reported.
type MatchupPlayer struct {
	ID      uuid.UUID     `gorm:"type:uuid;primary_key" json:"id"`
	GroupID uuid.UUID     `gorm:"not null;uniqueIndex:idx_group_player,priority:1" json:"group_id"`
	Group   *MatchupGroup `gorm:"foreignKey:GroupID" json:"group,omitempty"`

	PlayerID int64  `gorm:"not null;uniqueIndex:idx_group_player,priority:2;index" json:"player_id"`
	Name     string `gorm:"not null" json:"name"`
	Country  string `json:"country"`

	// Odds as quoted by the book; format is resolved by the engine.
	Odds       *float64 `json:"odds"`
	OddsFormat string   `gorm:"type:varchar(20);default:'auto'" json:"odds_format"`

	// Tournament-scoped strokes gained
	SGTotal  *float64 `json:"sg_total"`
	SGOffTee *float64 `json:"sg_off_tee"`
	SGApp    *float64 `json:"sg_app"`
	SGArg    *float64 `json:"sg_arg"`
	SGPutt   *float64 `json:"sg_putt"`

	// Season-long strokes gained, provider A
	SeasonSGTotal  *float64 `json:"season_sg_total"`
	SeasonSGOffTee *float64 `json:"season_sg_off_tee"`
	SeasonSGApp    *float64 `json:"season_sg_app"`
	SeasonSGArg    *float64 `json:"season_sg_arg"`
	SeasonSGPutt   *float64 `json:"season_sg_putt"`

	// Season-long strokes gained, provider B
	AltSGTotal  *float64 `json:"alt_sg_total"`
	AltSGOffTee *float64 `json:"alt_sg_off_tee"`
	AltSGApp    *float64 `json:"alt_sg_app"`
	AltSGArg    *float64 `json:"alt_sg_arg"`
	AltSGPutt   *float64 `json:"alt_sg_putt"`

	// Live leaderboard state
	TodayScore *float64 `json:"today_score"`
	Position   *int     `json:"position"`
	ThruHoles  int      `json:"thru_holes"`

	// Display fields carried from upstream scoring runs
	ValueRating     *float64      `json:"value_rating"`
	ConfidenceScore *float64      `json:"confidence_score"`
	RoundsScores    pq.Int64Array `gorm:"type:integer[]" json:"rounds_scores"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (MatchupPlayer) TableName() string {
	return "matchup_players"
}

func (p *MatchupPlayer) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// ToRecord converts a persisted row into the engine's immutable input form.
// The group key is the market's external id so records joined from several
// rounds never collide.
func (p *MatchupPlayer) ToRecord(groupKey, eventName string, roundNum int) engine.PlayerRecord {
	return engine.PlayerRecord{
		PlayerID:   p.PlayerID,
		Name:       p.Name,
		GroupID:    groupKey,
		EventName:  eventName,
		RoundNum:   roundNum,
		Odds:       p.Odds,
		OddsFormat: engine.OddsFormat(p.OddsFormat),
		Tournament: engine.SGLine{
			Total:       p.SGTotal,
			OffTee:      p.SGOffTee,
			Approach:    p.SGApp,
			AroundGreen: p.SGArg,
			Putting:     p.SGPutt,
		},
		SeasonA: engine.SGLine{
			Total:       p.SeasonSGTotal,
			OffTee:      p.SeasonSGOffTee,
			Approach:    p.SeasonSGApp,
			AroundGreen: p.SeasonSGArg,
			Putting:     p.SeasonSGPutt,
		},
		SeasonB: engine.SGLine{
			Total:       p.AltSGTotal,
			OffTee:      p.AltSGOffTee,
			Approach:    p.AltSGApp,
			AroundGreen: p.AltSGArg,
			Putting:     p.AltSGPutt,
		},
		TodayScore:      p.TodayScore,
		Position:        p.Position,
		ValueRating:     p.ValueRating,
		ConfidenceScore: p.ConfidenceScore,
	}
}

// GroupRecords converts a whole matchup group for the engine.
func (g *MatchupGroup) GroupRecords(eventName string) []engine.PlayerRecord {
	records := make([]engine.PlayerRecord, 0, len(g.Players))
	for i := range g.Players {
		records = append(records, g.Players[i].ToRecord(g.ExternalID, eventName, g.RoundNum))
	}
	return records
}
