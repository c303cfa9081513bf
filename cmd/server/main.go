package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"airhockey/internal/config"
	"airhockey/internal/hockey"
	"airhockey/internal/netwrk"
	"airhockey/internal/report"
)

func main() {
	// Load .env if present; absence is normal outside development.
	godotenv.Load()

	configPath := flag.String("config", "", "path to YAML config file")
	port := flag.Int("port", 0, "listen port override")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("could not load configuration")
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	var reporter *report.Reporter
	if cfg.Server.ReportURL != "" {
		reporter = report.NewReporter(cfg.Server.ReportURL)
	}

	srv := netwrk.NewGameServer(netwrk.Config{
		Addr: cfg.ServerAddr(),
		Settings: hockey.Settings{
			Width:             cfg.Game.Width,
			Height:            cfg.Game.Height,
			PaddleRadius:      cfg.Game.PaddleRadius,
			PuckRadius:        cfg.Game.PuckRadius,
			GoalWidth:         cfg.Game.GoalWidth,
			GoalHeight:        cfg.Game.GoalHeight,
			WinningScore:      cfg.Game.WinningScore,
			CountdownDuration: cfg.Game.CountdownDuration.Std(),
		},
		PhysicsRate:   cfg.Server.PhysicsRate,
		BroadcastRate: cfg.Server.BroadcastRate,
		Reporter:      reporter,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("game server failed")
	}
	log.Info().Msg("game server stopped")
}
