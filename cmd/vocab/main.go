package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/aaajiao/vocab-tracker-sub000/internal/buildinfo"
	"github.com/aaajiao/vocab-tracker-sub000/internal/client/cli"
	"github.com/aaajiao/vocab-tracker-sub000/internal/client/config"
	"github.com/aaajiao/vocab-tracker-sub000/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}

	logger, closer := logging.NewFileLogger(logging.FileOptions{Path: cfg.LogFile, Level: cfg.LogLevel})
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := cli.Build(ctx, cfg, logger, os.Stdin, os.Stdout)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer app.Close()

	if err := app.Run(ctx); err != nil {
		logger.Error(ctx, "client stopped", "error", err)
	}

}
