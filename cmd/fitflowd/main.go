// Command fitflowd runs the conversion daemon: it watches the inbox
// directory for FIT files and writes CSV renditions to the outbox.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"fitflow/internal/config"
	"fitflow/internal/daemon"
	"fitflow/internal/history"
	"fitflow/internal/logging"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	configPath := ""
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := history.Open(cfg)
	if err != nil {
		logger.Error("open history store", logging.Error(err))
		os.Exit(1)
	}

	d, err := daemon.New(cfg, logger, store)
	if err != nil {
		_ = store.Close()
		logger.Error("create daemon", logging.Error(err))
		os.Exit(1)
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		os.Exit(1)
	}

	<-ctx.Done()
	d.Stop()
	logger.Info("shutdown complete")
}
