package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"aerial/internal/config"
	"aerial/internal/daemon"
	"aerial/internal/logging"
	"aerial/internal/store"
)

func main() {
	configPath := flag.String("config", "", "configuration file path")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	st, err := store.Open(cfg)
	if err != nil {
		logger.Error("open store", logging.Error(err))
		return
	}

	d, err := daemon.New(cfg, st, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		_ = st.Close()
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("start daemon", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("aeriald shutting down")
	d.Stop()
}
