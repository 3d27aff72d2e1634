package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary      System status
// @Description  Commanded relay states, active boosts and the last tick outcome
// @Tags         system
// @Produce      json
// @Success      200  {object}  radiator_heating.SystemStatus
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/status [get]
func (h *Handler) getStatus(c *gin.Context) {
	status, err := h.services.Status.GetStatus(c.Request.Context())
	if err != nil {
		h.respondError(c, "status_get_failed", err)
		return
	}
	c.JSON(http.StatusOK, status)
}
