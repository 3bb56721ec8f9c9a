package ocr

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/avolkovs/paperflow/internal/core/domain"
	"github.com/avolkovs/paperflow/internal/infrastructure/resilience"
)

type countingEngine struct {
	inFlight atomic.Int32
	peak     atomic.Int32
	calls    atomic.Int32
	delay    time.Duration
}

func (e *countingEngine) Recognize(ctx context.Context, _ image.Image) (domain.RecognizedText, error) {
	e.calls.Add(1)
	n := e.inFlight.Add(1)
	for {
		p := e.peak.Load()
		if n <= p || e.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if e.delay > 0 {
		select {
		case <-time.After(e.delay):
		case <-ctx.Done():
		}
	}
	e.inFlight.Add(-1)
	return domain.RecognizedText{Text: "ok", Confidence: 90}, nil
}

func testExecutor() *resilience.Executor {
	cfg := resilience.DefaultConfig()
	cfg.BreakerEnabled = false
	return resilience.NewExecutor(cfg)
}

func TestPoolBoundsConcurrency(t *testing.T) {
	engine := &countingEngine{delay: 10 * time.Millisecond}
	pool := NewPool(engine, testExecutor(), 2)
	defer pool.Shutdown()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := pool.Recognize(context.Background(), image.NewGray(image.Rect(0, 0, 1, 1))); err != nil {
				t.Errorf("recognize: %v", err)
			}
		}()
	}
	wg.Wait()

	if peak := engine.peak.Load(); peak > 2 {
		t.Fatalf("expected at most 2 concurrent jobs, saw %d", peak)
	}
}

func TestPoolHonorsContextWhileQueued(t *testing.T) {
	engine := &countingEngine{delay: 100 * time.Millisecond}
	pool := NewPool(engine, testExecutor(), 1)
	defer pool.Shutdown()

	// Occupy the single worker.
	go pool.Recognize(context.Background(), image.NewGray(image.Rect(0, 0, 1, 1)))
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := pool.Recognize(ctx, image.NewGray(image.Rect(0, 0, 1, 1))); err == nil {
		t.Fatal("expected queued job to fail when its context expires")
	}
}

func TestPoolShutdownRejectsNewWork(t *testing.T) {
	engine := &countingEngine{}
	pool := NewPool(engine, testExecutor(), 1)
	pool.Shutdown()

	if _, err := pool.Recognize(context.Background(), image.NewGray(image.Rect(0, 0, 1, 1))); !errors.Is(err, errPoolClosed) {
		t.Fatalf("expected errPoolClosed after shutdown, got %v", err)
	}
	if engine.calls.Load() != 0 {
		t.Fatal("expected no engine call after shutdown")
	}
}

func TestPoolShutdownAfterUseRejectsEveryCall(t *testing.T) {
	engine := &countingEngine{}
	pool := NewPool(engine, testExecutor(), 2)

	if _, err := pool.Recognize(context.Background(), image.NewGray(image.Rect(0, 0, 1, 1))); err != nil {
		t.Fatalf("recognize before shutdown: %v", err)
	}
	pool.Shutdown()

	for i := 0; i < 50; i++ {
		if _, err := pool.Recognize(context.Background(), image.NewGray(image.Rect(0, 0, 1, 1))); !errors.Is(err, errPoolClosed) {
			t.Fatalf("call %d: expected errPoolClosed, got %v", i, err)
		}
	}
	if got := engine.calls.Load(); got != 1 {
		t.Fatalf("expected exactly the pre-shutdown engine call, got %d", got)
	}
}
