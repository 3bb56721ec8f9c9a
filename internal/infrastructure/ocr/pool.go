package ocr

import (
	"context"
	"errors"
	"image"
	"sync"

	"github.com/avolkovs/paperflow/internal/core/domain"
	"github.com/avolkovs/paperflow/internal/infrastructure/resilience"
)

const defaultWorkers = 4

var errPoolClosed = errors.New("ocr pool closed")

type recognizer interface {
	Recognize(ctx context.Context, img image.Image) (domain.RecognizedText, error)
}

type job struct {
	ctx    context.Context
	img    image.Image
	result chan jobResult
}

type jobResult struct {
	text domain.RecognizedText
	err  error
}

// Pool serializes OCR calls through a fixed number of workers. Tesseract
// contexts are heavyweight; the pool keeps their concurrency bounded no
// matter how many scans are mid-flight.
type Pool struct {
	engine   recognizer
	executor *resilience.Executor
	workers  int

	startOnce sync.Once
	jobs      chan job
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func NewPool(engine recognizer, executor *resilience.Executor, workers int) *Pool {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Pool{
		engine:   engine,
		executor: executor,
		workers:  workers,
		jobs:     make(chan job),
		done:     make(chan struct{}),
	}
}

func (p *Pool) start() {
	p.startOnce.Do(func() {
		select {
		case <-p.done:
			// Shut down before the first job; spawn nothing.
			return
		default:
		}
		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)
			go p.worker()
		}
	})
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			return
		case j := <-p.jobs:
			text, err := p.recognizeOnce(j.ctx, j.img)
			j.result <- jobResult{text: text, err: err}
		}
	}
}

func (p *Pool) recognizeOnce(ctx context.Context, img image.Image) (domain.RecognizedText, error) {
	var text domain.RecognizedText
	err := p.executor.Execute(ctx, "ocr_recognize", func(ctx context.Context) error {
		var err error
		text, err = p.engine.Recognize(ctx, img)
		return err
	}, classifyOCRError)
	return text, err
}

// Recognize blocks until a worker slot is free, then runs the job. A closed
// pool rejects the job before it can race a lingering worker receive.
func (p *Pool) Recognize(ctx context.Context, img image.Image) (domain.RecognizedText, error) {
	select {
	case <-p.done:
		return domain.RecognizedText{}, errPoolClosed
	default:
	}
	p.start()

	j := job{ctx: ctx, img: img, result: make(chan jobResult, 1)}
	select {
	case <-ctx.Done():
		return domain.RecognizedText{}, ctx.Err()
	case <-p.done:
		return domain.RecognizedText{}, errPoolClosed
	case p.jobs <- j:
	}

	select {
	case <-ctx.Done():
		return domain.RecognizedText{}, ctx.Err()
	case res := <-j.result:
		return res.text, res.err
	}
}

// Shutdown stops the workers and waits for in-flight jobs to finish.
func (p *Pool) Shutdown() {
	p.closeOnce.Do(func() {
		close(p.done)
	})
	p.wg.Wait()
}

func classifyOCRError(err error) resilience.ErrorClassification {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
}
