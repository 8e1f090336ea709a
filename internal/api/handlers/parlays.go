package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/greg-czaplicki/parlay-picker/internal/api/middleware"
	"github.com/greg-czaplicki/parlay-picker/internal/models"
	"github.com/greg-czaplicki/parlay-picker/internal/services"
	"github.com/greg-czaplicki/parlay-picker/pkg/utils"
)

type ParlayHandler struct {
	parlays *services.ParlayService
	logger  *logrus.Logger
}

func NewParlayHandler(parlays *services.ParlayService, logger *logrus.Logger) *ParlayHandler {
	return &ParlayHandler{parlays: parlays, logger: logger}
}

type createParlayRequest struct {
	Name  string               `json:"name"`
	Stake float64              `json:"stake" binding:"required"`
	Picks []services.PickInput `json:"picks" binding:"required"`
}

// CreateParlay records a new parlay for the authenticated user
func (h *ParlayHandler) CreateParlay(c *gin.Context) {
	var req createParlayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid parlay request", err.Error())
		return
	}

	parlay, err := h.parlays.CreateParlay(middleware.UserID(c), req.Name, req.Stake, req.Picks, nil)
	if err != nil {
		utils.SendValidationError(c, "Could not create parlay", err.Error())
		return
	}
	utils.SendSuccess(c, parlay)
}

// ListParlays returns the user's parlays, optionally filtered by status
func (h *ParlayHandler) ListParlays(c *gin.Context) {
	status := models.ParlayStatus(c.Query("status"))
	parlays, err := h.parlays.ListParlays(middleware.UserID(c), status)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list parlays")
		utils.SendInternalError(c, "Failed to list parlays")
		return
	}
	utils.SendSuccess(c, parlays)
}

// GetParlay returns one parlay with its picks
func (h *ParlayHandler) GetParlay(c *gin.Context) {
	parlayID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendValidationError(c, "Invalid parlay id", err.Error())
		return
	}

	parlay, err := h.parlays.GetParlay(middleware.UserID(c), parlayID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.SendNotFound(c, "Parlay not found")
			return
		}
		utils.SendInternalError(c, "Failed to load parlay")
		return
	}
	utils.SendSuccess(c, parlay)
}

// DeleteParlay removes an open parlay
func (h *ParlayHandler) DeleteParlay(c *gin.Context) {
	parlayID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendValidationError(c, "Invalid parlay id", err.Error())
		return
	}

	if err := h.parlays.DeleteParlay(middleware.UserID(c), parlayID); err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.SendNotFound(c, "Parlay not found")
			return
		}
		utils.SendConflict(c, err.Error())
		return
	}
	utils.SendSuccess(c, gin.H{"deleted": parlayID})
}

type settleRequest struct {
	WinnerPlayerID int64 `json:"winner_player_id"`
	Push           bool  `json:"push"`
}

// SettleGroup resolves a matchup market and reconciles affected parlays.
// Admin endpoint; normal settlement happens from the sync pipeline.
func (h *ParlayHandler) SettleGroup(c *gin.Context) {
	groupID, err := uuid.Parse(c.Param("groupId"))
	if err != nil {
		utils.SendValidationError(c, "Invalid matchup group id", err.Error())
		return
	}

	var req settleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid settlement request", err.Error())
		return
	}
	if !req.Push && req.WinnerPlayerID == 0 {
		utils.SendValidationError(c, "Invalid settlement request", "winner_player_id required unless push")
		return
	}

	if err := h.parlays.SettleGroup(groupID, req.WinnerPlayerID, req.Push); err != nil {
		h.logger.WithError(err).Error("Settlement failed")
		utils.SendInternalError(c, "Settlement failed")
		return
	}
	utils.SendSuccess(c, gin.H{"settled": groupID})
}
