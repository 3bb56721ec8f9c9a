package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/avolkovs/paperflow/internal/config"
	"github.com/avolkovs/paperflow/internal/core/ports"
	"github.com/avolkovs/paperflow/internal/core/usecase"
	"github.com/avolkovs/paperflow/internal/infrastructure/barcode"
	"github.com/avolkovs/paperflow/internal/infrastructure/extraction"
	"github.com/avolkovs/paperflow/internal/infrastructure/imaging"
	"github.com/avolkovs/paperflow/internal/infrastructure/limiter"
	"github.com/avolkovs/paperflow/internal/infrastructure/ocr"
	"github.com/avolkovs/paperflow/internal/infrastructure/pageimage"
	"github.com/avolkovs/paperflow/internal/infrastructure/queue/nats"
	"github.com/avolkovs/paperflow/internal/infrastructure/repository/postgres"
	"github.com/avolkovs/paperflow/internal/infrastructure/resilience"
	"github.com/avolkovs/paperflow/internal/infrastructure/segmenting"
	"github.com/avolkovs/paperflow/internal/infrastructure/storage/localfs"
)

type App struct {
	Config config.Config

	Queue   ports.MessageQueue
	Scans   ports.ScanRepository
	Limiter ports.SlotLimiter

	RegisterUC ports.ScanRegistrar
	ProcessUC  ports.ScanProcessor
	RecoverUC  ports.ScanRecoverer

	closeFn func()
}

// New wires the full dependency graph. monitor may be nil for binaries that
// do not report per-page metrics.
func New(ctx context.Context, cfg config.Config, log *slog.Logger, monitor ports.ProcessMonitor) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	scans := postgres.NewScanRepository(db)
	if err := scans.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	pages := postgres.NewPageRepository(db)
	reference := postgres.NewReferenceRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	engine := ocr.NewEngine(cfg.OCRLanguages)
	recognizer := ocr.NewPool(engine, executor, cfg.OCRWorkers)

	barcodes := barcode.NewReader()
	images := pageimage.NewProvider(storage)
	normalizer := imaging.NewNormalizer(recognizer, log)
	extractor := extraction.NewEngine(recognizer, barcodes)

	knownCodes, err := reference.ListBatchTypeCodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load batch type codes: %w", err)
	}
	segmenter := segmenting.New(images, barcodes, knownCodes, cfg.BarcodeFanOut)

	slots := limiter.New(cfg.ScanSlots)

	registerUC := usecase.NewRegisterScanUseCase(scans, storage, queue)
	processUC := usecase.NewProcessScanUseCase(scans, pages, images, segmenter, normalizer, extractor, reference, monitor, log)
	recoverUC := usecase.NewRecoverScansUseCase(scans, pages, queue, float64(cfg.RecoveryResubmitPerSecond), log)

	return &App{
		Config: cfg,

		Queue:   queue,
		Scans:   scans,
		Limiter: slots,

		RegisterUC: registerUC,
		ProcessUC:  processUC,
		RecoverUC:  recoverUC,

		closeFn: func() {
			recognizer.Shutdown()
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
