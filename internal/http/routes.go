package http

import (
	"time"

	"wordguess/internal/http/handlers"
	"wordguess/internal/http/middleware"
	"wordguess/internal/service"
	"wordguess/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"
)

// Deps are the collaborators the HTTP surface needs.
type Deps struct {
	Hub      *ws.Hub
	Results  handlers.ResultStore
	Configs  handlers.ConfigLister
	Identity *service.IdentityService
	Redis    *redis.Client

	DBPing    handlers.PingFunc
	RedisPing handlers.PingFunc

	PublicURL     string
	AllowedOrigin string
	Version       string

	CreateRateLimit  int
	CreateRateWindow time.Duration
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	h := handlers.NewHandler(d.Hub, d.Results, d.Configs, d.PublicURL)
	healthHandler := handlers.NewHealthHandler(d.DBPing, d.RedisPing, d.Hub, d.Version)

	r.Use(middleware.Metrics())

	// Health checks (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	createRL := middleware.RedisRateLimit(d.Redis, "create", d.CreateRateLimit, d.CreateRateWindow)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/games", createRL, h.CreateGame)
		v1.GET("/games/:code", h.GetGame)
		v1.GET("/games/:code/qr", h.GameQR)

		me := v1.Group("/me")
		me.Use(middleware.JWT(d.Identity))
		me.GET("/results", h.MyResults)
		me.GET("/stats", h.MyStats)
		me.GET("/configs", h.MyConfigs)
	}

	var identify ws.IdentifyFunc
	if d.Identity.Enabled() {
		identify = func(token string) (*ws.Identity, error) {
			id, err := d.Identity.Parse(token)
			if err != nil {
				return nil, err
			}
			return &ws.Identity{StudentID: id.StudentID, ClassID: id.ClassID}, nil
		}
	}
	r.GET("/ws", ws.HandleWS(d.Hub, ws.NewUpgrader(d.AllowedOrigin), identify))
}

// CORS mirrors the request origin for browser clients served elsewhere.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
