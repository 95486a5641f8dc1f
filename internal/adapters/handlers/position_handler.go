package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hephylab/tableService/internal/domain/models"
)

// CreatePosition stores a named table position.
func (h *Handler) CreatePosition(c *gin.Context) {
	var req models.TablePositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err, "Invalid request payload")
		return
	}

	position, err := h.usecase.CreatePosition(req)
	if err != nil {
		h.InternalError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "ok", "position": position})
}

// GetPositions lists all stored positions.
func (h *Handler) GetPositions(c *gin.Context) {
	positions, err := h.usecase.GetPositions()
	if err != nil {
		h.InternalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"count":     len(positions),
		"positions": positions,
	})
}

// GetPosition returns one stored position by id.
func (h *Handler) GetPosition(c *gin.Context) {
	position, err := h.usecase.GetPosition(c.Param("id"))
	if err != nil {
		h.NotFound(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "position": position})
}

// UpdatePosition updates a stored position.
func (h *Handler) UpdatePosition(c *gin.Context) {
	var req models.TablePositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err, "Invalid request payload")
		return
	}

	position, err := h.usecase.UpdatePosition(c.Param("id"), req)
	if err != nil {
		h.NotFound(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "position": position})
}

// DeletePosition removes a stored position.
func (h *Handler) DeletePosition(c *gin.Context) {
	if err := h.usecase.DeletePosition(c.Param("id")); err != nil {
		h.NotFound(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// MoveToPosition enqueues an absolute move to a stored position.
func (h *Handler) MoveToPosition(c *gin.Context) {
	if err := h.usecase.MoveToPosition(c.Param("id")); err != nil {
		h.NotFound(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "ok"})
}
