package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/greg-czaplicki/parlay-picker/internal/engine"
	"github.com/greg-czaplicki/parlay-picker/internal/models"
	"github.com/greg-czaplicki/parlay-picker/pkg/database"
)

// ParlayService manages parlay bets built from matchup picks: creation with
// payout math, retrieval, and settlement once markets resolve.
type ParlayService struct {
	db     *database.DB
	logger *logrus.Logger
}

func NewParlayService(db *database.DB, logger *logrus.Logger) *ParlayService {
	return &ParlayService{db: db, logger: logger}
}

// PickInput describes one requested parlay leg
type PickInput struct {
	GroupID  uuid.UUID `json:"group_id" binding:"required"`
	PlayerID int64     `json:"player_id" binding:"required"`
}

// CreateParlay validates the requested legs against stored markets and writes
// the parlay with a snapshot of the scoring records it was picked from.
func (s *ParlayService) CreateParlay(userID, name string, stake float64, picks []PickInput, snapshot []engine.DerivedRecord) (*models.Parlay, error) {
	if stake <= 0 {
		return nil, fmt.Errorf("stake must be positive")
	}
	if len(picks) < 2 {
		return nil, fmt.Errorf("a parlay needs at least two picks")
	}

	seen := make(map[uuid.UUID]bool, len(picks))
	legs := make([]models.ParlayPick, 0, len(picks))
	for _, pick := range picks {
		if seen[pick.GroupID] {
			return nil, fmt.Errorf("duplicate pick for matchup group %s", pick.GroupID)
		}
		seen[pick.GroupID] = true

		var player models.MatchupPlayer
		err := s.db.Preload("Group").
			Where("group_id = ? AND player_id = ?", pick.GroupID, pick.PlayerID).
			First(&player).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, fmt.Errorf("player %d is not in matchup group %s", pick.PlayerID, pick.GroupID)
			}
			return nil, fmt.Errorf("failed to validate pick: %w", err)
		}

		roundNum := 0
		if player.Group != nil {
			roundNum = player.Group.RoundNum
		}
		legs = append(legs, models.ParlayPick{
			GroupID:  pick.GroupID,
			PlayerID: pick.PlayerID,
			Name:     player.Name,
			Odds:     player.Odds,
			RoundNum: roundNum,
		})
	}

	parlay := models.Parlay{
		UserID: userID,
		Name:   name,
		Stake:  stake,
		Payout: potentialPayout(stake, legs),
		Status: models.ParlayOpen,
		Picks:  legs,
	}

	if snapshot != nil {
		data, err := json.Marshal(snapshot)
		if err == nil {
			parlay.Snapshot = datatypes.JSON(data)
		}
	}

	if err := s.db.Create(&parlay).Error; err != nil {
		return nil, fmt.Errorf("failed to create parlay: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"component": "parlays",
		"parlay_id": parlay.ID,
		"legs":      len(legs),
		"payout":    parlay.Payout,
	}).Info("Parlay created")
	return &parlay, nil
}

// GetParlay loads one parlay with its picks, scoped to the owner
func (s *ParlayService) GetParlay(userID string, parlayID uuid.UUID) (*models.Parlay, error) {
	var parlay models.Parlay
	err := s.db.Preload("Picks").
		Where("id = ? AND user_id = ?", parlayID, userID).
		First(&parlay).Error
	if err != nil {
		return nil, err
	}
	return &parlay, nil
}

// ListParlays returns a user's parlays, newest first
func (s *ParlayService) ListParlays(userID string, status models.ParlayStatus) ([]models.Parlay, error) {
	query := s.db.Preload("Picks").Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var parlays []models.Parlay
	err := query.Order("created_at DESC").Find(&parlays).Error
	return parlays, err
}

// DeleteParlay removes an open parlay. Settled parlays are kept for history.
func (s *ParlayService) DeleteParlay(userID string, parlayID uuid.UUID) error {
	parlay, err := s.GetParlay(userID, parlayID)
	if err != nil {
		return err
	}
	if parlay.Status != models.ParlayOpen {
		return fmt.Errorf("cannot delete a settled parlay")
	}
	if err := s.db.Where("parlay_id = ?", parlayID).Delete(&models.ParlayPick{}).Error; err != nil {
		return fmt.Errorf("failed to delete parlay picks: %w", err)
	}
	return s.db.Delete(&models.Parlay{}, "id = ?", parlayID).Error
}

// SettleGroup resolves every pending pick on a matchup group. A zero winner
// with push=true voids the market (dead heat or withdrawal); otherwise picks
// on the winner win and the rest lose. Affected parlays are reconciled.
func (s *ParlayService) SettleGroup(groupID uuid.UUID, winnerPlayerID int64, push bool) error {
	var picks []models.ParlayPick
	err := s.db.Where("group_id = ? AND status = ?", groupID, models.PickPending).Find(&picks).Error
	if err != nil {
		return fmt.Errorf("failed to load pending picks: %w", err)
	}

	now := time.Now().UTC()
	affected := make(map[uuid.UUID]bool)
	for i := range picks {
		pick := &picks[i]
		switch {
		case push:
			pick.Status = models.PickPushed
		case pick.PlayerID == winnerPlayerID:
			pick.Status = models.PickWon
		default:
			pick.Status = models.PickLost
		}
		pick.SettledAt = &now
		if err := s.db.Save(pick).Error; err != nil {
			return fmt.Errorf("failed to settle pick: %w", err)
		}
		affected[pick.ParlayID] = true
	}

	for parlayID := range affected {
		if err := s.reconcileParlay(parlayID); err != nil {
			return err
		}
	}
	return nil
}

// reconcileParlay derives the parlay's status from its legs. One lost leg
// loses the whole ticket; pushed legs drop out of the payout instead of
// killing it.
func (s *ParlayService) reconcileParlay(parlayID uuid.UUID) error {
	var parlay models.Parlay
	if err := s.db.Preload("Picks").First(&parlay, "id = ?", parlayID).Error; err != nil {
		return fmt.Errorf("failed to load parlay: %w", err)
	}
	if parlay.Status != models.ParlayOpen {
		return nil
	}

	anyLost := false
	anyPending := false
	var liveLegs []models.ParlayPick
	for _, pick := range parlay.Picks {
		switch pick.Status {
		case models.PickLost:
			anyLost = true
		case models.PickPending:
			anyPending = true
		case models.PickWon:
			liveLegs = append(liveLegs, pick)
		}
	}

	switch {
	case anyLost:
		parlay.Status = models.ParlayLost
		parlay.Payout = 0
	case anyPending:
		return nil
	case len(liveLegs) == 0:
		// Every leg pushed; stake back
		parlay.Status = models.ParlayPushed
		parlay.Payout = parlay.Stake
	default:
		parlay.Status = models.ParlayWon
		parlay.Payout = potentialPayout(parlay.Stake, liveLegs)
	}

	now := time.Now().UTC()
	parlay.SettledAt = &now
	if err := s.db.Save(&parlay).Error; err != nil {
		return fmt.Errorf("failed to settle parlay: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"component": "parlays",
		"parlay_id": parlay.ID,
		"status":    parlay.Status,
		"payout":    parlay.Payout,
	}).Info("Parlay settled")
	return nil
}

// potentialPayout multiplies the legs' decimal prices into a total return.
// Legs without a price contribute even money.
func potentialPayout(stake float64, legs []models.ParlayPick) float64 {
	payout := stake
	for _, leg := range legs {
		if leg.Odds == nil {
			payout *= 2.0
			continue
		}
		dec := engine.DecimalOdds(*leg.Odds, engine.OddsAuto)
		if dec > 1 {
			payout *= dec
		}
	}
	return payout
}
