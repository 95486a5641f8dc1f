package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hephylab/tableService/internal/domain/models"
)

// Status reports the current table state snapshot.
func (h *Handler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"table":  h.usecase.Status(),
	})
}

// Connect opens a table connection using the given driver and resources.
func (h *Handler) Connect(c *gin.Context) {
	var req models.ConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err, "Invalid request payload")
		return
	}

	h.logger.Info("Connect requested", "name", req.Name, "driver", req.DriverType)

	if err := h.usecase.Connect(req); err != nil {
		h.BadRequest(c, err, "Invalid connection")
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "ok"})
}

// Disconnect closes the active connection. Safe to call when already
// disconnected.
func (h *Handler) Disconnect(c *gin.Context) {
	h.logger.Info("Disconnect requested")
	h.usecase.Disconnect()
	c.JSON(http.StatusAccepted, gin.H{"status": "ok"})
}

// ConnectionInfo describes the active connection.
func (h *Handler) ConnectionInfo(c *gin.Context) {
	info := h.usecase.ConnectionInfo()
	if info == nil {
		h.NotFound(c, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "connection_info": info})
}

// MoveRelative enqueues a relative move.
func (h *Handler) MoveRelative(c *gin.Context) {
	var req models.MoveRelativeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err, "Invalid request payload")
		return
	}
	h.usecase.MoveRelative(req)
	c.JSON(http.StatusAccepted, gin.H{"status": "ok"})
}

// MoveAbsolute enqueues an absolute move.
func (h *Handler) MoveAbsolute(c *gin.Context) {
	var req models.MoveAbsoluteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err, "Invalid request payload")
		return
	}
	h.usecase.MoveAbsolute(req)
	c.JSON(http.StatusAccepted, gin.H{"status": "ok"})
}

// AbortMove requests cancellation of the running motion.
func (h *Handler) AbortMove(c *gin.Context) {
	h.logger.Info("Abort requested")
	h.usecase.AbortMove()
	c.JSON(http.StatusAccepted, gin.H{"status": "ok"})
}

// Calibrate enqueues a calibration of the selected axes.
func (h *Handler) Calibrate(c *gin.Context) {
	var req models.AxisMaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err, "Invalid request payload")
		return
	}
	h.usecase.Calibrate(req)
	c.JSON(http.StatusAccepted, gin.H{"status": "ok"})
}

// RangeMeasure enqueues a range measurement of the selected axes.
func (h *Handler) RangeMeasure(c *gin.Context) {
	var req models.AxisMaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err, "Invalid request payload")
		return
	}
	h.usecase.RangeMeasure(req)
	c.JSON(http.StatusAccepted, gin.H{"status": "ok"})
}

// EnableJoystick toggles manual joystick control.
func (h *Handler) EnableJoystick(c *gin.Context) {
	var req models.JoystickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err, "Invalid request payload")
		return
	}
	h.usecase.EnableJoystick(req.Enabled)
	c.JSON(http.StatusAccepted, gin.H{"status": "ok"})
}

// SetZLimit updates the Z safety plane settings.
func (h *Handler) SetZLimit(c *gin.Context) {
	var req models.ZLimitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err, "Invalid request payload")
		return
	}
	h.usecase.SetZLimit(req)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
