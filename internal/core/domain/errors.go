package domain

import (
	"errors"
	"fmt"
)

var (
	ErrScanNotFound = errors.New("scan not found")
	// ErrEmptyScan means the source file decoded to zero pages.
	ErrEmptyScan = errors.New("scan has no pages")
	// ErrAlreadyProcessing guards against a double-run; the scan's stored
	// fields are left untouched when this is returned.
	ErrAlreadyProcessing = errors.New("scan is already processing")
	// ErrReprocessNotAllowed is returned when a manual reprocess is requested
	// for a scan that is not in the failed state.
	ErrReprocessNotAllowed = errors.New("scan is not in a failed state")
	ErrInvalidInput        = errors.New("invalid input")
	ErrTemporary           = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
