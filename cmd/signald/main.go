package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"barbridge/internal/signald"
	"barbridge/internal/util"
)

var (
	port     = flag.Int("port", 8000, "port the stub service listens on")
	logLevel = flag.String("log-level", "info", "process log level")
)

func main() {
	flag.Parse()
	log := util.NewLogger(*logLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Info().Int("port", *port).Msg("signal stub up")
	if err := signald.New(*port, log).Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("stub stopped")
	}
	log.Info().Msg("stub shut down")
}
