package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"wordguess/internal/domain"
	"wordguess/internal/game"
	"wordguess/internal/repository"
	"wordguess/internal/ws"

	"github.com/gin-gonic/gin"
)

// ResultStore reads archived games.
type ResultStore interface {
	GetByStudent(ctx context.Context, studentID string, limit int) ([]*domain.GameResult, error)
	GetStudentStats(ctx context.Context, studentID string, since time.Time) (*repository.StudentStats, error)
}

// ConfigLister lists the word-bank configurations a class can use.
type ConfigLister interface {
	ListByClass(ctx context.Context, classID string, limit int) ([]*domain.WordBankConfig, error)
}

type Handler struct {
	Hub     *ws.Hub
	Results ResultStore
	Configs ConfigLister
	// PublicURL is the base of join links; the request host is used when empty.
	PublicURL string
}

func NewHandler(hub *ws.Hub, results ResultStore, configs ConfigLister, publicURL string) *Handler {
	return &Handler{Hub: hub, Results: results, Configs: configs, PublicURL: publicURL}
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrConfigNotFound), errors.Is(err, ws.ErrGameNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrInsufficientWords), errors.Is(err, game.ErrInvalidGridSize):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ws.ErrCodeSpaceExhausted):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		c.Error(err)
		msg = "internal error"
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
