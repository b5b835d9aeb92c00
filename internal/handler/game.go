package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"asser-platform/internal/service"
)

// GameHandler serves the door prediction game.
type GameHandler struct {
	games *service.GameService
}

// NewGameHandler creates a new GameHandler.
func NewGameHandler(games *service.GameService) *GameHandler {
	return &GameHandler{games: games}
}

// Active handles GET /games/active. The body is {"game": null} when no
// round is running.
func (h *GameHandler) Active(c *gin.Context) {
	g, err := h.games.ActiveGame(c.Request.Context())
	if err != nil {
		Error(c, err)
		return
	}
	respond(c, gin.H{"game": g})
}

// TimerSync handles GET /games/timer-sync.
func (h *GameHandler) TimerSync(c *gin.Context) {
	sync, err := h.games.TimerSync(c.Request.Context())
	if err != nil {
		Error(c, err)
		return
	}
	respond(c, sync)
}

// Participate handles POST /games/participate.
func (h *GameHandler) Participate(c *gin.Context) {
	var in service.ParticipateInput
	if !bind(c, &in) {
		return
	}
	in.StakeCurrency = currency(in.StakeCurrency)
	res, err := h.games.Participate(c.Request.Context(), userID(c), in)
	if err != nil {
		Error(c, err)
		return
	}
	respond(c, res)
}

// MyParticipations handles GET /games/my-participations.
func (h *GameHandler) MyParticipations(c *gin.Context) {
	parts, err := h.games.MyParticipations(c.Request.Context(), userID(c))
	if err != nil {
		Error(c, err)
		return
	}
	respond(c, gin.H{"participations": parts})
}

// Create handles POST /games/create (admin). The correct door is returned
// to the creating admin only.
func (h *GameHandler) Create(c *gin.Context) {
	var in service.CreateGameInput
	if !bind(c, &in) {
		return
	}
	g, err := h.games.CreateGame(c.Request.Context(), userID(c), in)
	if err != nil {
		Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"gameId":      g.ID,
		"correctDoor": g.CorrectDoor,
		"game":        g,
	})
}

// Close handles POST /admin/games/:id/close.
func (h *GameHandler) Close(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	if err := h.games.CloseGame(c.Request.Context(), userID(c), id); err != nil {
		Error(c, err)
		return
	}
	respond(c, gin.H{"success": true})
}

// List handles GET /admin/games.
func (h *GameHandler) List(c *gin.Context) {
	games, err := h.games.ListGames(c.Request.Context(), limitQuery(c))
	if err != nil {
		Error(c, err)
		return
	}
	respond(c, gin.H{"games": games})
}

// Formulas handles GET /admin/formulas.
func (h *GameHandler) Formulas(c *gin.Context) {
	respond(c, gin.H{"formulas": h.games.Formulas()})
}
