// Package limiter bounds how many scans a worker processes at once.
package limiter

import (
	"context"

	"golang.org/x/sync/semaphore"
)

type Slots struct {
	sem *semaphore.Weighted
}

func New(slots int) *Slots {
	if slots <= 0 {
		slots = 1
	}
	return &Slots{sem: semaphore.NewWeighted(int64(slots))}
}

func (s *Slots) Acquire(ctx context.Context) error {
	return s.sem.Acquire(ctx, 1)
}

func (s *Slots) Release() {
	s.sem.Release(1)
}
