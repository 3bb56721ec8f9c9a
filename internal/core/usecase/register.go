package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/avolkovs/paperflow/internal/core/domain"
	"github.com/avolkovs/paperflow/internal/core/ports"
)

// RegisterScanUseCase stores an uploaded scan file, creates its pending
// record and publishes a processing job.
type RegisterScanUseCase struct {
	scans   ports.ScanRepository
	storage ports.ObjectStorage
	queue   ports.MessageQueue
}

func NewRegisterScanUseCase(
	scans ports.ScanRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
) *RegisterScanUseCase {
	return &RegisterScanUseCase{
		scans:   scans,
		storage: storage,
		queue:   queue,
	}
}

func (uc *RegisterScanUseCase) Register(
	ctx context.Context,
	location, filename string,
	body io.Reader,
) (*domain.Scan, error) {
	if strings.TrimSpace(location) == "" {
		return nil, fmt.Errorf("register scan: %w: location is required", domain.ErrInvalidInput)
	}

	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))
	now := time.Now().UTC()

	hasher := sha256.New()
	if err := uc.storage.Save(ctx, storageKey, io.TeeReader(body, hasher)); err != nil {
		return nil, fmt.Errorf("save scan file: %w", err)
	}

	scan := &domain.Scan{
		ID:          id,
		Location:    location,
		ContentHash: hex.EncodeToString(hasher.Sum(nil)),
		StoragePath: storageKey,
		Status:      domain.ScanPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := uc.scans.Create(ctx, scan); err != nil {
		return nil, fmt.Errorf("create scan record: %w", err)
	}

	if err := uc.queue.PublishScanQueued(ctx, scan.ID); err != nil {
		return nil, fmt.Errorf("publish scan job: %w", err)
	}

	return scan, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." || base == ".." {
		return "scan.bin"
	}
	return base
}
