package main

// pagepdf downloads image galleries and binds them into PDF documents.
//
// Package structure:
// - cmd/        : cobra commands (download, bulk, logs, version)
// - config/     : YAML config, env overrides, build metadata
// - logger/     : component loggers and the rotating debug log
// - parser/     : image extraction, pagination crawl, ordering
// - downloader/ : HTTP client, concurrent image pool, jobs and queue
// - assemble/   : image normalization, PDF and EPUB writers
// - cf/         : anti-bot detection, decompression, cookie files
// - bookmarks/  : bulk URL files

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"pagepdf/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
