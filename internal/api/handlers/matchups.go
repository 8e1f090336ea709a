package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/greg-czaplicki/parlay-picker/internal/engine"
	"github.com/greg-czaplicki/parlay-picker/internal/services"
	"github.com/greg-czaplicki/parlay-picker/pkg/utils"
)

type MatchupHandler struct {
	matchups *services.MatchupService
	sync     *services.SyncService
	logger   *logrus.Logger
}

func NewMatchupHandler(matchups *services.MatchupService, sync *services.SyncService, logger *logrus.Logger) *MatchupHandler {
	return &MatchupHandler{
		matchups: matchups,
		sync:     sync,
		logger:   logger,
	}
}

// ListEvents returns recent events carrying matchup markets
func (h *MatchupHandler) ListEvents(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	events, err := h.matchups.ListEvents(limit)
	if err != nil {
		utils.SendInternalError(c, "Failed to load events")
		return
	}
	utils.SendSuccess(c, events)
}

// GetEventMatchups returns an event's raw matchup records for one round
func (h *MatchupHandler) GetEventMatchups(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendValidationError(c, "Invalid event id", err.Error())
		return
	}
	roundNum, _ := strconv.Atoi(c.DefaultQuery("round", "0"))

	records, event, err := h.matchups.EventRecords(eventID, roundNum)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.SendNotFound(c, "Event not found")
			return
		}
		h.logger.WithError(err).Error("Failed to load event matchups")
		utils.SendInternalError(c, "Failed to load event matchups")
		return
	}

	utils.SendSuccess(c, gin.H{
		"event":   event,
		"players": records,
	})
}

// RunFilter executes a named filter over an event's markets.
// Scoring and filter knobs are tunable per request via query parameters.
func (h *MatchupHandler) RunFilter(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendValidationError(c, "Invalid event id", err.Error())
		return
	}

	name := engine.FilterName(c.Param("name"))
	opts := engine.DefaultFilterOptions(name)
	roundNum, _ := strconv.Atoi(c.DefaultQuery("round", "0"))

	if err := applyFilterParams(c, &opts); err != nil {
		utils.SendValidationError(c, "Invalid filter parameter", err.Error())
		return
	}

	result, err := h.matchups.RunFilter(c.Request.Context(), eventID, roundNum, name, opts)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.SendNotFound(c, "Event not found")
			return
		}
		var badCfg *engine.ErrBadConfig
		if errors.As(err, &badCfg) {
			utils.SendValidationError(c, "Invalid filter configuration", err.Error())
			return
		}
		h.logger.WithError(err).Error("Filter run failed")
		utils.SendInternalError(c, "Filter run failed")
		return
	}

	utils.SendSuccess(c, result)
}

// CompareGroup returns the head-to-head signal breakdown for one market
func (h *MatchupHandler) CompareGroup(c *gin.Context) {
	groupID, err := uuid.Parse(c.Param("groupId"))
	if err != nil {
		utils.SendValidationError(c, "Invalid matchup group id", err.Error())
		return
	}

	comparison, err := h.matchups.CompareGroup(c.Request.Context(), groupID)
	if err != nil {
		if err.Error() == "matchup group not found" {
			utils.SendNotFound(c, "Matchup group not found")
			return
		}
		h.logger.WithError(err).Error("Comparison failed")
		utils.SendInternalError(c, "Comparison failed")
		return
	}

	utils.SendSuccess(c, comparison)
}

// TriggerSync kicks off an immediate provider sync
func (h *MatchupHandler) TriggerSync(c *gin.Context) {
	go h.sync.SyncNow()
	h.matchups.ClearBlendCache()
	utils.SendAccepted(c, gin.H{"status": "sync started"})
}

func applyFilterParams(c *gin.Context, opts *engine.FilterOptions) error {
	if v := c.Query("min_sg"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		opts.MinSG = f
	}
	if v := c.Query("min_value_score"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		opts.MinValueScore = f
	}
	if v := c.Query("min_odds_gap"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		opts.MinOddsGap = f
	}
	if v := c.Query("include_underdogs"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		opts.IncludeUnderdogs = b
	}
	if v := c.Query("all_qualifiers"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		opts.AllQualifiers = b
	}
	if v := c.Query("sort"); v != "" {
		opts.SortKey = engine.SortKey(v)
	}
	if v := c.Query("blend_mode"); v != "" {
		opts.Score.Blend.Mode = engine.BlendMode(v)
	}
	if v := c.Query("tournament_weight"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		opts.Score.Blend.TournamentWeight = f
	}
	if v := c.Query("season_source"); v != "" {
		opts.Score.Blend.SeasonSource = engine.SeasonSource(v)
	}
	if v := c.Query("remove_vig"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		opts.Score.RemoveVig = b
	}
	return nil
}
