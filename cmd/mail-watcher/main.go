package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"disputeflow/internal/config"
	"disputeflow/internal/logger"
	"disputeflow/internal/pipeline"
	"disputeflow/internal/storage"
	"disputeflow/internal/watcher"
)

func main() {
	cfg, err := config.Load()
	must(err)

	log := logger.New()

	schemas, err := pipeline.LoadSchemas(cfg.AliasConfigPath)
	must(err)

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	svc := watcher.NewService(db, cfg, schemas, log)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	must(svc.Run(ctx))
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
