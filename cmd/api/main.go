package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/pzawadzki/grafik/internal/config"
	"github.com/pzawadzki/grafik/internal/handler"
	"github.com/pzawadzki/grafik/internal/service"
	"github.com/pzawadzki/grafik/internal/store"
)

func main() {
	configPath := flag.String("config", "grafik.yaml", "path to the configuration file")
	flag.Parse()

	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("configuration load failed")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		log = log.Level(level)
	}

	team := cfg.Team()

	var svc *service.ScheduleService
	if cfg.Store.DSN != "" {
		pg, err := store.NewPostgresStore(cfg.Store.DSN)
		if err != nil {
			log.Fatal().Err(err).Msg("postgres store init failed")
		}
		svc = service.NewScheduleService(pg, team, log)
		svc.SetRunRecorder(pg)
	} else {
		svc = service.NewScheduleService(store.NewCSVStore(cfg.Store.Path), team, log)
	}
	svc.SetEngineDefaults(cfg.Engine.Trials, cfg.Budget())

	h := handler.New(svc, log)
	server := &http.Server{
		Addr:         cfg.Server.Listen,
		Handler:      h.Router(cfg.Server.AllowedOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	go func() {
		log.Info().Str("listen", cfg.Server.Listen).Int("doctors", len(team.Doctors)).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
	log.Info().Msg("server stopped")
}
