package handlers

import (
	"net/http"
	"net/url"
	"time"

	"wordguess/internal/game"
	"wordguess/internal/logger"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"
)

const qrSize = 256

type createGameRequest struct {
	ConfigID string `json:"configId" binding:"required"`
	game.Modes
}

type createGameResponse struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expiresAt"`
	JoinURL   string    `json:"joinUrl"`
}

// CreateGame starts a room for a stored word bank configuration.
func (h *Handler) CreateGame(c *gin.Context) {
	var req createGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "configId is required"})
		return
	}

	created, err := h.Hub.CreateGame(c.Request.Context(), req.ConfigID, req.Modes)
	if err != nil {
		logger.Warn("create game failed", "config", req.ConfigID, "error", err)
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, createGameResponse{
		Code:      created.Code,
		ExpiresAt: created.ExpiresAt,
		JoinURL:   h.joinURL(c, created.Code),
	})
}

// GetGame returns the secret-free summary of a live game.
func (h *Handler) GetGame(c *gin.Context) {
	summary, err := h.Hub.Summary(c.Request.Context(), c.Param("code"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GameQR renders the join link of a live game as a PNG QR code.
func (h *Handler) GameQR(c *gin.Context) {
	room, ok := h.Hub.Room(c.Param("code"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
		return
	}

	png, err := qrcode.Encode(h.joinURL(c, room.Code), qrcode.Medium, qrSize)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}

func (h *Handler) joinURL(c *gin.Context, code string) string {
	base := h.PublicURL
	if base == "" {
		scheme := "http"
		if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
			scheme = "https"
		}
		base = scheme + "://" + c.Request.Host
	}
	return base + "/join?code=" + url.QueryEscape(code)
}
