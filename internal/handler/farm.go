package handler

import (
	"github.com/gin-gonic/gin"

	"asser-platform/internal/model"
	"asser-platform/internal/service"
)

// FarmHandler serves the virtual farm.
type FarmHandler struct {
	farms *service.FarmService
}

// NewFarmHandler creates a new FarmHandler.
func NewFarmHandler(farms *service.FarmService) *FarmHandler {
	return &FarmHandler{farms: farms}
}

type plantRequest struct {
	Size model.PlantSize `json:"size"`
}

// Plant handles POST /farm/plant.
func (h *FarmHandler) Plant(c *gin.Context) {
	var req plantRequest
	if !bind(c, &req) {
		return
	}
	view, err := h.farms.Plant(c.Request.Context(), userID(c), req.Size)
	if err != nil {
		Error(c, err)
		return
	}
	respond(c, gin.H{
		"plant":           view.PlantedItems[len(view.PlantedItems)-1],
		"dailyProduction": view.DailyProduction,
		"farm":            view,
	})
}

// State handles GET /farm/state. A due harvest is credited first.
func (h *FarmHandler) State(c *gin.Context) {
	view, err := h.farms.State(c.Request.Context(), userID(c))
	if err != nil {
		Error(c, err)
		return
	}
	respond(c, view)
}

// Water handles POST /farm/water.
func (h *FarmHandler) Water(c *gin.Context) {
	view, err := h.farms.Water(c.Request.Context(), userID(c))
	if err != nil {
		Error(c, err)
		return
	}
	respond(c, view)
}

// Catalog handles GET /farm/plants.
func (h *FarmHandler) Catalog(c *gin.Context) {
	respond(c, gin.H{"plants": h.farms.Catalog()})
}
