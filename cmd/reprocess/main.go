// Command reprocess resets a failed scan and queues it again.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/avolkovs/paperflow/internal/bootstrap"
	"github.com/avolkovs/paperflow/internal/config"
	"github.com/avolkovs/paperflow/internal/observability/logging"
)

func main() {
	fs := ff.NewFlagSet("paperflow-reprocess")
	var (
		scanID  = fs.StringLong("scan", "", "ID of the failed scan to reprocess")
		stalled = fs.BoolLong("stalled", "Recover all scans stuck in processing instead")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("PAPERFLOW"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if *scanID == "" && !*stalled {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintln(os.Stderr, "error: --scan or --stalled is required")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger := logging.NewJSONLogger("paperflow-reprocess", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger, nil)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	if *stalled {
		count, err := app.RecoverUC.RecoverStalled(ctx)
		if err != nil {
			log.Fatalf("recover stalled scans: %v", err)
		}
		logger.Info("recovered stalled scans", "count", count)
		return
	}

	if err := app.RecoverUC.Reprocess(ctx, *scanID); err != nil {
		log.Fatalf("reprocess scan: %v", err)
	}
	logger.Info("scan queued for reprocessing", "scan", *scanID)
}
