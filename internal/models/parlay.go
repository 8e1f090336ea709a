package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ParlayStatus represents the lifecycle of a parlay bet
type ParlayStatus string

const (
	ParlayOpen   ParlayStatus = "open"
	ParlayWon    ParlayStatus = "won"
	ParlayLost   ParlayStatus = "lost"
	ParlayPushed ParlayStatus = "pushed"
	ParlayVoided ParlayStatus = "voided"
)

// PickStatus represents the settlement state of a single matchup pick
type PickStatus string

const (
	PickPending PickStatus = "pending"
	PickWon     PickStatus = "won"
	PickLost    PickStatus = "lost"
	PickPushed  PickStatus = "pushed"
)

// Parlay represents a combined bet across several matchup picks
type Parlay struct {
	ID     uuid.UUID    `gorm:"type:uuid;primary_key" json:"id"`
	UserID string       `gorm:"not null;index" json:"user_id"`
	Name   string       `json:"name"`
	Stake  float64      `json:"stake"`
	Payout float64      `json:"payout"`
	Status ParlayStatus `gorm:"type:varchar(20);default:'open';index" json:"status"`
	// Snapshot of the derived scoring records the picks were made from,
	// kept for the explanation panel after odds move.
	Snapshot  datatypes.JSON `gorm:"type:jsonb" json:"snapshot,omitempty"`
	SettledAt *time.Time     `json:"settled_at"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`

	// Associations
	Picks []ParlayPick `gorm:"foreignKey:ParlayID" json:"picks,omitempty"`
}

// TableName specifies the table name for GORM
func (Parlay) TableName() string {
	return "parlays"
}

// BeforeCreate generates the id client-side so non-postgres databases work
func (p *Parlay) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// ParlayPick represents one leg of a parlay: a player picked to win a
// matchup group.
type ParlayPick struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	ParlayID  uuid.UUID  `gorm:"not null;index" json:"parlay_id"`
	Parlay    *Parlay    `gorm:"foreignKey:ParlayID" json:"parlay,omitempty"`
	GroupID   uuid.UUID  `gorm:"not null;index" json:"group_id"`
	PlayerID  int64      `gorm:"not null" json:"player_id"`
	Name      string     `gorm:"not null" json:"name"`
	Odds      *float64   `json:"odds"`
	RoundNum  int        `json:"round_num"`
	Status    PickStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	SettledAt *time.Time `json:"settled_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (ParlayPick) TableName() string {
	return "parlay_picks"
}

func (p *ParlayPick) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Settled reports whether the pick has reached a terminal state.
func (p *ParlayPick) Settled() bool {
	return p.Status != PickPending
}
