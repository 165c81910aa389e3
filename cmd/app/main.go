package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"battle-arena/internal/clients"
	"battle-arena/internal/config"
	"battle-arena/internal/logging"
	"battle-arena/internal/scheduler"
	"battle-arena/internal/services"
	"battle-arena/internal/session"
	"battle-arena/internal/storage/preview"
	"battle-arena/internal/web"
)

func main() {
	configPath := flag.String("config", "./configs", "directory holding config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath, "config")
	if err != nil {
		log.Fatal().Err(err).Msg("[App] cannot load config")
	}
	logging.Setup(cfg.Log)

	ctx := context.Background()
	generator, closeGenerator, err := clients.NewGenerator(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("[App] cannot init inference engine")
	}
	defer closeGenerator()

	battleSvc, err := services.NewBattleService(cfg, generator)
	if err != nil {
		log.Fatal().Err(err).Msg("[App] cannot init battle service")
	}

	previewStore, err := preview.NewFileSystemStorage(cfg.Preview.Dir)
	if err != nil {
		log.Fatal().Err(err).Msg("[App] cannot init preview storage")
	}

	registry, err := session.NewRegistry(battleSvc, previewStore, cfg.Analysis.FallbackErrorMessage)
	if err != nil {
		log.Fatal().Err(err).Msg("[App] cannot init session registry")
	}
	defer registry.CloseAll()

	if cfg.Scheduler.Enabled {
		sweeper, err := scheduler.NewScheduler(registry, cfg.Scheduler.SweepCronSpec, cfg.Scheduler.SessionIdleTTL)
		if err != nil {
			log.Fatal().Err(err).Msg("[App] cannot init scheduler")
		}
		sweeper.Start()
		defer sweeper.Stop()
	} else {
		log.Info().Msg("[App] scheduler disabled, idle sessions are kept until deleted")
	}

	router, err := web.SetupRouter(cfg.Server, registry, previewStore)
	if err != nil {
		log.Fatal().Err(err).Msg("[App] cannot set up router")
	}
	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Str("engine", generator.Name()).Msg("[App] HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("[App] HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("[App] shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("[App] graceful shutdown failed")
	}
	log.Info().Msg("[App] stopped")
}
