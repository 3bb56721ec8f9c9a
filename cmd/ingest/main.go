// Command ingest registers a scan file and queues it for processing.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/avolkovs/paperflow/internal/bootstrap"
	"github.com/avolkovs/paperflow/internal/config"
	"github.com/avolkovs/paperflow/internal/observability/logging"
)

func main() {
	fs := ff.NewFlagSet("paperflow-ingest")
	var (
		location = fs.StringLong("location", "", "Store location code the scan came from")
		file     = fs.StringLong("file", "", "Path to the scan file to ingest")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("PAPERFLOW"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if *location == "" || *file == "" {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintln(os.Stderr, "error: --location and --file are required")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger := logging.NewJSONLogger("paperflow-ingest", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger, nil)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	f, err := os.Open(*file)
	if err != nil {
		log.Fatalf("open scan file: %v", err)
	}
	defer f.Close()

	scan, err := app.RegisterUC.Register(ctx, *location, filepath.Base(*file), f)
	if err != nil {
		log.Fatalf("register scan: %v", err)
	}

	logger.Info("scan registered", "scan", scan.ID, "location", scan.Location, "hash", scan.ContentHash)
	fmt.Println(scan.ID)
}
