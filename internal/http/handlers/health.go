package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"wordguess/internal/ws"

	"github.com/gin-gonic/gin"
)

const (
	readyTimeout  = 5 * time.Second
	healthTimeout = 3 * time.Second
)

// PingFunc checks one dependency.
type PingFunc func(ctx context.Context) error

type dependencyState string

const (
	stateHealthy   dependencyState = "healthy"
	stateUnhealthy dependencyState = "unhealthy"
	stateDegraded  dependencyState = "degraded"
	stateDisabled  dependencyState = "disabled"
)

// HealthHandler serves the liveness and readiness endpoints.
type HealthHandler struct {
	db      PingFunc
	redis   PingFunc
	hub     *ws.Hub
	started time.Time
	version string
}

// NewHealthHandler builds the probes. redis is nil when it is not configured.
func NewHealthHandler(db, redis PingFunc, hub *ws.Hub, version string) *HealthHandler {
	return &HealthHandler{
		db:      db,
		redis:   redis,
		hub:     hub,
		started: time.Now(),
		version: version,
	}
}

type readinessReport struct {
	Status       dependencyState            `json:"status"`
	Version      string                     `json:"version,omitempty"`
	Uptime       string                     `json:"uptime"`
	Timestamp    time.Time                  `json:"timestamp"`
	Dependencies map[string]dependencyState `json:"dependencies"`
	Errors       map[string]string          `json:"errors,omitempty"`
	Rooms        int                        `json:"rooms"`
	Goroutines   int                        `json:"goroutines"`
	HeapMB       float64                    `json:"heapMb"`
}

// Liveness only says the process is serving.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness fails only on the database. Redis just degrades caching and
// rate limiting.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
	defer cancel()

	rep := readinessReport{
		Status:       stateHealthy,
		Version:      h.version,
		Uptime:       time.Since(h.started).Round(time.Second).String(),
		Timestamp:    time.Now().UTC(),
		Dependencies: map[string]dependencyState{},
		Goroutines:   runtime.NumGoroutine(),
	}

	if err := h.db(ctx); err != nil {
		rep.Dependencies["database"] = stateUnhealthy
		rep.addError("database", err)
		rep.Status = stateUnhealthy
	} else {
		rep.Dependencies["database"] = stateHealthy
	}

	switch {
	case h.redis == nil:
		rep.Dependencies["redis"] = stateDisabled
	default:
		if err := h.redis(ctx); err != nil {
			rep.Dependencies["redis"] = stateDegraded
			rep.addError("redis", err)
		} else {
			rep.Dependencies["redis"] = stateHealthy
		}
	}

	if h.hub != nil {
		rep.Rooms = h.hub.RoomCount()
	}
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	rep.HeapMB = float64(m.HeapAlloc) / (1 << 20)

	code := http.StatusOK
	if rep.Status != stateHealthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, rep)
}

func (r *readinessReport) addError(name string, err error) {
	if r.Errors == nil {
		r.Errors = map[string]string{}
	}
	r.Errors[name] = err.Error()
}

// Health is the short form for load balancers.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if err := h.db(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": stateUnhealthy, "error": "database unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": h.version})
}
