package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"github.com/sarvagya80/SarvTribe/internal/app/services/connections"
	domainconnection "github.com/sarvagya80/SarvTribe/internal/domain/connection"
)

type ConnectionHandler struct {
	Service *connections.Service
	Logger  *slog.Logger
}

type connectRequest struct {
	TargetUserID string `json:"target_user_id"`
}

type acceptRequest struct {
	RequesterID string `json:"requester_id"`
}

func (h ConnectionHandler) Request(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	var req connectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request"})
		return
	}
	target := strings.TrimSpace(req.TargetUserID)
	if target == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "target_user_id is required"})
		return
	}
	conn, err := h.Service.Request(c.Request.Context(), p.ID, target)
	if err != nil {
		h.respondConnectionError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "connection": conn})
}

func (h ConnectionHandler) Accept(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	var req acceptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request"})
		return
	}
	requester := strings.TrimSpace(req.RequesterID)
	if requester == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "requester_id is required"})
		return
	}
	conn, err := h.Service.Accept(c.Request.Context(), p.ID, requester)
	if err != nil {
		h.respondConnectionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "connection": conn})
}

func (h ConnectionHandler) respondConnectionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domainconnection.ErrSelfConnection):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "You cannot connect with yourself."})
	case errors.Is(err, domainconnection.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": "A connection or pending request already exists."})
	case errors.Is(err, domainconnection.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Connection request not found or already accepted."})
	default:
		if h.Logger != nil {
			h.Logger.Error("connection operation failed", "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "internal error"})
	}
}

var _ ConnectionHTTP = (*ConnectionHandler)(nil)
