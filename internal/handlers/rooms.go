package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"radiator_heating"
)

// @Summary      List rooms
// @Tags         rooms
// @Produce      json
// @Success      200  {array}  radiator_heating.Room
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/rooms [get]
func (h *Handler) listRooms(c *gin.Context) {
	rooms, err := h.services.Rooms.List(c.Request.Context())
	if err != nil {
		h.respondError(c, "rooms_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, rooms)
}

// @Summary      Get room
// @Tags         rooms
// @Produce      json
// @Param        id   path      string  true  "room id"
// @Success      200  {object}  radiator_heating.Room
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/rooms/{id} [get]
func (h *Handler) getRoom(c *gin.Context) {
	id := c.Param("id")
	room, err := h.services.Rooms.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "room_get_failed", err, "room", id)
		return
	}
	c.JSON(http.StatusOK, room)
}

// @Summary      Create room
// @Description  Radiator and sensor ids must reference existing devices
// @Tags         rooms
// @Accept       json
// @Produce      json
// @Param        body  body      radiator_heating.Room  true  "room"
// @Success      201   {object}  radiator_heating.Room
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /api/v1/rooms [post]
func (h *Handler) createRoom(c *gin.Context) {
	var room radiator_heating.Room
	if err := c.ShouldBindJSON(&room); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body: " + err.Error()})
		return
	}
	created, err := h.services.Rooms.Create(c.Request.Context(), room)
	if err != nil {
		h.respondError(c, "room_create_failed", err, "room", room.ID)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// @Summary      Update room
// @Tags         rooms
// @Accept       json
// @Produce      json
// @Param        id    path      string                 true  "room id"
// @Param        body  body      radiator_heating.Room  true  "room"
// @Success      200   {object}  radiator_heating.Room
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/rooms/{id} [put]
func (h *Handler) updateRoom(c *gin.Context) {
	var room radiator_heating.Room
	if err := c.ShouldBindJSON(&room); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body: " + err.Error()})
		return
	}
	room.ID = c.Param("id")
	updated, err := h.services.Rooms.Update(c.Request.Context(), room)
	if err != nil {
		h.respondError(c, "room_update_failed", err, "room", room.ID)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// @Summary      Delete room
// @Tags         rooms
// @Produce      json
// @Param        id   path      string  true  "room id"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/rooms/{id} [delete]
func (h *Handler) deleteRoom(c *gin.Context) {
	id := c.Param("id")
	if err := h.services.Rooms.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, "room_delete_failed", err, "room", id)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
