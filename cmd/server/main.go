package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/openplans/planbox/internal/bootstrap"
	"github.com/openplans/planbox/internal/config"
	"github.com/openplans/planbox/internal/modules/handler"
	"github.com/openplans/planbox/internal/modules/service"
	"github.com/openplans/planbox/internal/router"
	"github.com/openplans/planbox/internal/telemetry"
	"github.com/samber/do"
	"go.uber.org/zap"
)

//	@title			Planbox API
//	@version		0.0.1
//	@description	Project timelines with per-owner slugs and public/private visibility.

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Type "Bearer" followed by a space and a user token.

func main() {
	inj := bootstrap.BuildContainer()

	cfg := do.MustInvoke[*config.Config](inj)
	log := do.MustInvoke[*zap.Logger](inj)
	defer log.Sync()

	gin.SetMode(cfg.Server.Mode)

	if _, err := telemetry.SetupTracing(cfg); err != nil {
		log.Warn("tracing setup failed", zap.Error(err))
	}
	if _, err := telemetry.SetupMetrics(cfg); err != nil {
		log.Warn("metrics setup failed", zap.Error(err))
	}
	if cfg.Telemetry.Enabled {
		if err := telemetry.InitTimelineMetrics(); err != nil {
			log.Warn("timeline metrics init failed", zap.Error(err))
		}
	}

	users := do.MustInvoke[service.UserService](inj)
	if err := bootstrap.EnsureAdminUserExists(context.Background(), users, cfg, log); err != nil {
		log.Fatal("admin bootstrap failed", zap.Error(err))
	}

	r := router.NewRouter(router.RouterDeps{
		Config:         cfg,
		Log:            log,
		UserService:    users,
		ProjectHandler: do.MustInvoke[*handler.ProjectHandler](inj),
		EventHandler:   do.MustInvoke[*handler.EventHandler](inj),
		UserHandler:    do.MustInvoke[*handler.UserHandler](inj),
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Sugar().Infow("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}
	if err := telemetry.Shutdown(ctx); err != nil {
		log.Warn("tracer shutdown failed", zap.Error(err))
	}
	if err := telemetry.ShutdownMetrics(ctx); err != nil {
		log.Warn("meter shutdown failed", zap.Error(err))
	}
	_ = inj.Shutdown()
}
