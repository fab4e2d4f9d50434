package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"wordguess/internal/config"
	"wordguess/internal/db"
	httpServer "wordguess/internal/http"
	"wordguess/internal/http/handlers"
	"wordguess/internal/logger"
	"wordguess/internal/repository"
	"wordguess/internal/service"
	"wordguess/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const releaseVersion = "0.4.0"

func main() {
	cobra.CheckErr(newCmd().Execute())
}

func newCmd() *cobra.Command {
	v := config.NewViper()

	cmd := &cobra.Command{
		Use:           "wordguess",
		Short:         "Real-time two-player word guessing game server.",
		Args:          cobra.ExactArgs(0),
		Version:       releaseVersion,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()
	config.RegisterFlags(fs)
	config.BindFlags(v, fs)

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("wordguess v{{.Version}}\n")
	return cmd
}

func serve(parent context.Context, cfg *config.Config) error {
	logger.Init(logger.Options{Level: cfg.LogLevel, JSON: cfg.LogJSON})

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	rdb := db.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	var redisPing handlers.PingFunc
	if rdb != nil {
		defer rdb.Close()
		redisPing = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	configRepo := repository.NewConfigRepository(pool)
	configs := repository.NewCachedConfigStore(configRepo, rdb, cfg.ConfigCacheTTL)
	results := repository.NewGameResultRepository(pool)
	identity := service.NewIdentityService(cfg.JWTSecret, 0)
	if !identity.Enabled() {
		logger.Info("JWT_SECRET not set, identity tokens disabled")
	}

	hub := ws.NewHub(ws.HubConfig{
		IdleTimeout:       cfg.SessionIdleTimeout,
		GracePeriod:       cfg.SessionGracePeriod,
		HeartbeatInterval: cfg.HeartbeatInterval,
	}, configs, results)
	hub.StartHeartbeat(ctx)

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), httpServer.CORS())
	httpServer.RegisterRoutes(r, httpServer.Deps{
		Hub:              hub,
		Results:          results,
		Configs:          configRepo,
		Identity:         identity,
		Redis:            rdb,
		DBPing:           pool.Ping,
		RedisPing:        redisPing,
		PublicURL:        cfg.PublicURL,
		AllowedOrigin:    cfg.AllowedOrigin,
		Version:          releaseVersion,
		CreateRateLimit:  cfg.CreateRateLimit,
		CreateRateWindow: cfg.CreateRateWindow,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server started", "port", cfg.AppPort, "version", releaseVersion)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := hub.Shutdown(shutdownCtx); err != nil {
		logger.Warn("hub shutdown incomplete", "error", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("server exited")
	return nil
}
