package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm/clause"

	"github.com/greg-czaplicki/parlay-picker/internal/models"
	"github.com/greg-czaplicki/parlay-picker/internal/providers"
	"github.com/greg-czaplicki/parlay-picker/pkg/database"
)

// SyncService pulls matchup markets, skill ratings, and live tournament state
// from Data Golf on a schedule and persists them for the scoring endpoints.
type SyncService struct {
	db        *database.DB
	cache     *CacheService
	client    *providers.DataGolfClient
	hub       *WebSocketHub
	logger    *logrus.Logger
	cron      *cron.Cron
	tours     []string
	schedule  string
	mu        sync.Mutex
	isRunning bool
	lastSync  time.Time
}

func NewSyncService(
	db *database.DB,
	cache *CacheService,
	client *providers.DataGolfClient,
	hub *WebSocketHub,
	tours []string,
	schedule string,
	logger *logrus.Logger,
) *SyncService {
	return &SyncService{
		db:       db,
		cache:    cache,
		client:   client,
		hub:      hub,
		logger:   logger,
		cron:     cron.New(),
		tours:    tours,
		schedule: schedule,
	}
}

// Start begins scheduled syncing
func (s *SyncService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("sync service is already running")
	}

	if _, err := s.cron.AddFunc(s.schedule, s.syncAll); err != nil {
		return fmt.Errorf("failed to schedule sync: %w", err)
	}

	// Skill ratings move slowly; refresh once a day
	if _, err := s.cron.AddFunc("0 6 * * *", s.syncSkillRatings); err != nil {
		return fmt.Errorf("failed to schedule skill ratings sync: %w", err)
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.Info("Sync service started")
	return nil
}

// Stop halts scheduled syncing
func (s *SyncService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.isRunning = false
	s.logger.Info("Sync service stopped")
}

// SyncNow runs a full sync immediately, outside the schedule
func (s *SyncService) SyncNow() {
	s.syncAll()
}

// LastSync reports when the last successful full sync completed
func (s *SyncService) LastSync() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSync
}

func (s *SyncService) syncAll() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	for _, tour := range s.tours {
		if err := s.syncTour(ctx, tour); err != nil {
			s.logger.WithError(err).WithField("tour", tour).Error("Tour sync failed")
			continue
		}
	}

	s.mu.Lock()
	s.lastSync = time.Now().UTC()
	s.mu.Unlock()
}

func (s *SyncService) syncTour(ctx context.Context, tour string) error {
	for _, market := range []string{"round_matchups", "3_balls"} {
		resp, err := s.client.GetMatchups(ctx, tour, market)
		if err != nil {
			return err
		}
		if len(resp.MatchList) == 0 {
			continue
		}

		event, err := s.upsertEvent(tour, resp)
		if err != nil {
			return err
		}
		if err := s.upsertMatchups(event, resp); err != nil {
			return err
		}

		// Persisted odds changed; stale cached filter runs must not serve
		s.invalidateEventCaches(ctx, event)
		s.hub.Broadcast("odds_update", event.ID.String(), map[string]interface{}{
			"event":   resp.EventName,
			"round":   resp.RoundNum,
			"markets": len(resp.MatchList),
		})
	}

	if err := s.syncLiveStats(ctx, tour); err != nil {
		// Live stats are an enrichment; markets alone are still useful
		s.logger.WithError(err).WithField("tour", tour).Warn("Live stats sync failed")
	}
	return nil
}

func (s *SyncService) upsertEvent(tour string, resp *providers.DataGolfMatchupResponse) (*models.Event, error) {
	externalID := fmt.Sprintf("%s:%s", tour, resp.EventName)

	var event models.Event
	err := s.db.Where("external_id = ?", externalID).First(&event).Error
	if err != nil {
		event = models.Event{
			ExternalID: externalID,
			Name:       resp.EventName,
			Tour:       tour,
			Status:     models.EventInProgress,
		}
		if err := s.db.Create(&event).Error; err != nil {
			return nil, fmt.Errorf("failed to create event: %w", err)
		}
	}

	if resp.RoundNum > event.CurrentRound {
		event.CurrentRound = resp.RoundNum
		if err := s.db.Model(&event).Update("current_round", resp.RoundNum).Error; err != nil {
			return nil, fmt.Errorf("failed to update event round: %w", err)
		}
	}
	return &event, nil
}

func (s *SyncService) upsertMatchups(event *models.Event, resp *providers.DataGolfMatchupResponse) error {
	for i, market := range resp.MatchList {
		groupExternalID := marketExternalID(event.ExternalID, resp.RoundNum, i, market)

		group := models.MatchupGroup{
			EventID:    event.ID,
			ExternalID: groupExternalID,
			Type:       models.MatchupType(market.Type),
			RoundNum:   resp.RoundNum,
		}
		if err := s.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"updated_at"}),
		}).Create(&group).Error; err != nil {
			return fmt.Errorf("failed to upsert matchup group: %w", err)
		}
		// On conflict the struct keeps its freshly generated id, not the
		// persisted row's, so re-read before attaching players.
		if err := s.db.Where("external_id = ?", groupExternalID).First(&group).Error; err != nil {
			return fmt.Errorf("failed to load matchup group: %w", err)
		}

		for _, entry := range market.Players {
			player := models.MatchupPlayer{
				GroupID:    group.ID,
				PlayerID:   entry.PlayerID,
				Name:       entry.PlayerName,
				Odds:       entry.Odds,
				OddsFormat: entry.OddsFormat,
			}
			if err := s.db.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "group_id"}, {Name: "player_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"odds", "odds_format", "updated_at"}),
			}).Create(&player).Error; err != nil {
				return fmt.Errorf("failed to upsert matchup player: %w", err)
			}
		}
	}

	s.logger.WithFields(logrus.Fields{
		"component": "sync",
		"event":     event.Name,
		"round":     resp.RoundNum,
		"markets":   len(resp.MatchList),
	}).Info("Matchup markets synced")
	return nil
}

// marketExternalID derives a stable key for a market so re-syncs update rows
// in place. Data Golf does not expose market ids, so the key is built from
// the sorted member ids.
func marketExternalID(eventExternalID string, roundNum, index int, market providers.DataGolfMatchup) string {
	lowest := int64(0)
	for _, p := range market.Players {
		if lowest == 0 || p.PlayerID < lowest {
			lowest = p.PlayerID
		}
	}
	return fmt.Sprintf("%s:r%d:%s:%d:%d", eventExternalID, roundNum, market.Type, lowest, index)
}

func (s *SyncService) syncLiveStats(ctx context.Context, tour string) error {
	resp, err := s.client.GetLiveStats(ctx, tour)
	if err != nil {
		return err
	}

	for _, stat := range resp.Players {
		updates := map[string]interface{}{
			"today_score": stat.Today,
			"position":    stat.Position,
			"thru_holes":  stat.Thru,
			"sg_total":    stat.SGTotal,
			"sg_off_tee":  stat.SGOffTee,
			"sg_app":      stat.SGApproach,
			"sg_arg":      stat.SGAroundGrn,
			"sg_putt":     stat.SGPutting,
		}
		if err := s.db.Model(&models.MatchupPlayer{}).
			Where("player_id = ?", stat.PlayerID).
			Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update live stats: %w", err)
		}
	}

	s.logger.WithFields(logrus.Fields{
		"component": "sync",
		"event":     resp.EventName,
		"players":   len(resp.Players),
	}).Info("Live stats synced")
	return nil
}

func (s *SyncService) syncSkillRatings() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	resp, err := s.client.GetSkillRatings(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Skill ratings sync failed")
		return
	}

	for _, skill := range resp.Players {
		updates := map[string]interface{}{
			"season_sg_total":   skill.SGTotal,
			"season_sg_off_tee": skill.SGOffTee,
			"season_sg_app":     skill.SGApproach,
			"season_sg_arg":     skill.SGAroundGrn,
			"season_sg_putt":    skill.SGPutting,
			"country":           skill.Country,
		}
		if err := s.db.Model(&models.MatchupPlayer{}).
			Where("player_id = ?", skill.PlayerID).
			Updates(updates).Error; err != nil {
			s.logger.WithError(err).Error("Failed to update skill ratings")
			return
		}
	}

	s.logger.WithField("players", len(resp.Players)).Info("Skill ratings synced")
}

func (s *SyncService) invalidateEventCaches(ctx context.Context, event *models.Event) {
	keys := []string{
		MatchupsCacheKey(event.ID.String(), event.CurrentRound),
		FitFactorsCacheKey(event.ID.String()),
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.WithError(err).Debug("Cache invalidation failed")
	}
}
