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

	"airhockey/internal/balancer"
	"airhockey/internal/config"
)

func main() {
	godotenv.Load()

	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("could not load configuration")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	lb := balancer.New(balancer.Config{
		Addr:                cfg.BalancerAddr(),
		BackendHost:         cfg.Balancer.BackendHost,
		BackendPorts:        cfg.Balancer.BackendPorts,
		MaxConnsPerBackend:  cfg.Balancer.MaxConnsPerBackend,
		HealthCheckInterval: cfg.Balancer.HealthCheckInterval.Std(),
		DialTimeout:         cfg.Balancer.DialTimeout.Std(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := lb.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("load balancer failed")
	}
	log.Info().Msg("load balancer stopped")
}
