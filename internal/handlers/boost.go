package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"radiator_heating"
)

// Request DTO for starting a boost.
type boostRequest struct {
	DurationMinutes int      `json:"duration_minutes" binding:"required"`
	Radiators       []string `json:"radiators,omitempty"` // default: all of the room's radiators
}

// BoostRequest is an exported model for Swagger docs of the boost payload.
type BoostRequest struct {
	// Boost duration in minutes, must be positive
	DurationMinutes int `json:"duration_minutes" example:"30"`
	// Radiator device ids to force on; all of the room's radiators when omitted
	Radiators []string `json:"radiators,omitempty"`
}

// @Summary      Start boost
// @Description  Forces the listed radiators on until the boost expires; replaces any existing boost for the room
// @Tags         boosts
// @Accept       json
// @Produce      json
// @Param        id    path      string        true  "room id"
// @Param        body  body      BoostRequest  true  "boost payload"
// @Success      200   {object}  radiator_heating.Boost
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/rooms/{id}/boost [post]
func (h *Handler) startBoost(c *gin.Context) {
	roomID := c.Param("id")

	var req boostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body: " + err.Error()})
		return
	}

	boost, err := h.services.Boost.StartBoost(c.Request.Context(), roomID, req.DurationMinutes, req.Radiators)
	if err != nil {
		h.respondError(c, "boost_start_failed", err, "room", roomID)
		return
	}
	c.JSON(http.StatusOK, boost)
}

// @Summary      Cancel boost
// @Tags         boosts
// @Produce      json
// @Param        id   path      string  true  "room id"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/rooms/{id}/boost [delete]
func (h *Handler) cancelBoost(c *gin.Context) {
	roomID := c.Param("id")
	if err := h.services.Boost.CancelBoost(roomID); err != nil {
		h.respondError(c, "boost_cancel_failed", err, "room", roomID)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "canceled"})
}

// @Summary      List active boosts
// @Tags         boosts
// @Produce      json
// @Success      200  {array}  radiator_heating.Boost
// @Router       /api/v1/boosts [get]
func (h *Handler) listBoosts(c *gin.Context) {
	boosts := h.services.Boost.GetAllActive()
	if boosts == nil {
		boosts = make([]radiator_heating.Boost, 0)
	}
	c.JSON(http.StatusOK, boosts)
}
