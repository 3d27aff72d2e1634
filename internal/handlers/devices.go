package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"radiator_heating"
	"radiator_heating/internal/shelly"
)

// @Summary      List devices
// @Tags         devices
// @Produce      json
// @Success      200  {array}  radiator_heating.Device
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/devices [get]
func (h *Handler) listDevices(c *gin.Context) {
	devices, err := h.services.Devices.List(c.Request.Context())
	if err != nil {
		h.respondError(c, "devices_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, devices)
}

// @Summary      Get device
// @Tags         devices
// @Produce      json
// @Param        id   path      string  true  "device id"
// @Success      200  {object}  radiator_heating.Device
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/devices/{id} [get]
func (h *Handler) getDevice(c *gin.Context) {
	id := c.Param("id")
	device, err := h.services.Devices.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "device_get_failed", err, "device", id)
		return
	}
	c.JSON(http.StatusOK, device)
}

// @Summary      Create device
// @Tags         devices
// @Accept       json
// @Produce      json
// @Param        body  body      radiator_heating.Device  true  "device"
// @Success      201   {object}  radiator_heating.Device
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /api/v1/devices [post]
func (h *Handler) createDevice(c *gin.Context) {
	var device radiator_heating.Device
	if err := c.ShouldBindJSON(&device); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body: " + err.Error()})
		return
	}
	created, err := h.services.Devices.Create(c.Request.Context(), device)
	if err != nil {
		h.respondError(c, "device_create_failed", err, "device", device.ID)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// @Summary      Update device
// @Tags         devices
// @Accept       json
// @Produce      json
// @Param        id    path      string                   true  "device id"
// @Param        body  body      radiator_heating.Device  true  "device"
// @Success      200   {object}  radiator_heating.Device
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/devices/{id} [put]
func (h *Handler) updateDevice(c *gin.Context) {
	var device radiator_heating.Device
	if err := c.ShouldBindJSON(&device); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body: " + err.Error()})
		return
	}
	device.ID = c.Param("id")
	updated, err := h.services.Devices.Update(c.Request.Context(), device)
	if err != nil {
		h.respondError(c, "device_update_failed", err, "device", device.ID)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// @Summary      Delete device
// @Description  Fails with 409 while a room still references the device
// @Tags         devices
// @Produce      json
// @Param        id   path      string  true  "device id"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/v1/devices/{id} [delete]
func (h *Handler) deleteDevice(c *gin.Context) {
	id := c.Param("id")
	if err := h.services.Devices.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, "device_delete_failed", err, "device", id)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// @Summary      Probe relay status
// @Description  Reads on/off and power draw straight from the device
// @Tags         devices
// @Produce      json
// @Param        id   path      string  true  "device id"
// @Success      200  {object}  radiator_heating.RelayStatus
// @Failure      404  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/devices/{id}/status [get]
func (h *Handler) probeDevice(c *gin.Context) {
	id := c.Param("id")
	status, err := h.services.Devices.Probe(c.Request.Context(), id)
	if err != nil {
		h.respondDeviceError(c, id, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// respondDeviceError distinguishes transport failures (bad gateway /
// gateway timeout) from registry failures.
func (h *Handler) respondDeviceError(c *gin.Context, id string, err error) {
	switch {
	case errors.Is(err, shelly.ErrTimeout):
		h.log.Errorw("device_probe_timeout", "device", id, "err", err)
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
	case errors.Is(err, shelly.ErrDeviceUnreachable), errors.Is(err, shelly.ErrSensorNotFound):
		h.log.Errorw("device_probe_failed", "device", id, "err", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		h.respondError(c, "device_probe_failed", err, "device", id)
	}
}
