package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/greg-czaplicki/parlay-picker/internal/engine"
	"github.com/greg-czaplicki/parlay-picker/internal/models"
	"github.com/greg-czaplicki/parlay-picker/pkg/database"
)

// MatchupService loads persisted matchup markets and runs the scoring engine
// over them: filter sweeps across a whole event and head-to-head comparisons
// for a single group. Filter runs are cached in Redis keyed by their options.
type MatchupService struct {
	db         *database.DB
	cache      *CacheService
	courseFit  engine.CourseFitSource
	fitTimeout time.Duration
	cacheTTL   time.Duration
	blendCache *engine.BlendCache
	alerts     *AlertService
	logger     *logrus.Logger
}

func NewMatchupService(
	db *database.DB,
	cache *CacheService,
	courseFit engine.CourseFitSource,
	fitTimeout time.Duration,
	cacheTTL time.Duration,
	logger *logrus.Logger,
) *MatchupService {
	return &MatchupService{
		db:         db,
		cache:      cache,
		courseFit:  courseFit,
		fitTimeout: fitTimeout,
		cacheTTL:   cacheTTL,
		blendCache: engine.NewBlendCache(),
		logger:     logger,
	}
}

// WithAlerts attaches an alert service that is scanned after filter runs
func (s *MatchupService) WithAlerts(alerts *AlertService) *MatchupService {
	s.alerts = alerts
	return s
}

// GetEvent loads an event by id
func (s *MatchupService) GetEvent(eventID uuid.UUID) (*models.Event, error) {
	var event models.Event
	if err := s.db.First(&event, "id = ?", eventID).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// ListEvents returns events for the supported tours, newest first
func (s *MatchupService) ListEvents(limit int) ([]models.Event, error) {
	if limit <= 0 {
		limit = 20
	}
	var events []models.Event
	err := s.db.Order("start_date DESC").Limit(limit).Find(&events).Error
	return events, err
}

// EventRecords loads all markets for an event round and converts them to
// engine inputs. roundNum 0 means the event's current round.
func (s *MatchupService) EventRecords(eventID uuid.UUID, roundNum int) ([]engine.PlayerRecord, *models.Event, error) {
	event, err := s.GetEvent(eventID)
	if err != nil {
		return nil, nil, err
	}
	if roundNum <= 0 {
		roundNum = event.CurrentRound
	}

	var groups []models.MatchupGroup
	err = s.db.Preload("Players").
		Where("event_id = ? AND round_num = ?", eventID, roundNum).
		Find(&groups).Error
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load matchup groups: %w", err)
	}

	var records []engine.PlayerRecord
	for i := range groups {
		records = append(records, groups[i].GroupRecords(event.Name)...)
	}
	return records, event, nil
}

// RunFilter executes a named filter over an event's markets, attaching course
// fit factors and serving repeated identical runs from cache.
func (s *MatchupService) RunFilter(ctx context.Context, eventID uuid.UUID, roundNum int, name engine.FilterName, opts engine.FilterOptions) (*engine.FilterResult, error) {
	cacheKey := FilterCacheKey(eventID.String(), string(name), optionsHash(roundNum, opts))

	var cached engine.FilterResult
	if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
		s.logger.WithField("key", cacheKey).Debug("Filter cache hit")
		return &cached, nil
	}

	records, event, err := s.EventRecords(eventID, roundNum)
	if err != nil {
		return nil, err
	}

	fitFactors := engine.CourseFitFactors(ctx, s.courseFit, records, event.Name, s.fitTimeout, s.logger)

	result, err := engine.RunFilter(name, records, fitFactors, opts, s.blendCache)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, cacheKey, result, s.cacheTTL); err != nil {
		s.logger.WithError(err).Debug("Filter cache write failed")
	}

	if s.alerts != nil {
		s.alerts.ScanAndAlert(result.Players)
	}
	return result, nil
}

// CompareGroup runs the head-to-head signal analysis for one market
func (s *MatchupService) CompareGroup(ctx context.Context, groupID uuid.UUID) (*engine.Comparison, error) {
	var cached engine.Comparison
	cacheKey := ComparisonCacheKey(groupID.String())
	if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
		return &cached, nil
	}

	var group models.MatchupGroup
	err := s.db.Preload("Players").Preload("Event").First(&group, "id = ?", groupID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("matchup group not found")
		}
		return nil, fmt.Errorf("failed to load matchup group: %w", err)
	}

	eventName := ""
	if group.Event != nil {
		eventName = group.Event.Name
	}

	comparison, err := engine.Compare(group.GroupRecords(eventName))
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, cacheKey, comparison, s.cacheTTL); err != nil {
		s.logger.WithError(err).Debug("Comparison cache write failed")
	}
	return comparison, nil
}

// ClearBlendCache drops memoized blend results, typically after a sync
func (s *MatchupService) ClearBlendCache() {
	s.blendCache.Clear()
}

// optionsHash gives identical filter requests identical cache keys
func optionsHash(roundNum int, opts engine.FilterOptions) string {
	data, err := json.Marshal(struct {
		Round int
		Opts  engine.FilterOptions
	}{roundNum, opts})
	if err != nil {
		return "unhashable"
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}
