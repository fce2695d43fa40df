package utils

import (
	"errors"
	"io"

	"github.com/MrSnakeDoc/leasetrail/internal/logger"
)

// Close closes c and ignores any error.
// Use for best-effort cleanup in defer where error handling is not critical.
func Close(c io.Closer) {
	_ = c.Close()
}

// MustClose closes c and logs any error.
// Use for defer statements where we want to track close errors.
func MustClose(c io.Closer, log logger.Logger) {
	if err := c.Close(); err != nil {
		log.Warn("failed to close", logger.Error(err))
	}
}

// StackedReader reads from Reader and, on Close, closes every layer
// underneath it from the outermost in.
type StackedReader struct {
	io.Reader
	Layers []io.Closer
}

func (s *StackedReader) Close() error {
	var errs []error
	for _, c := range s.Layers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
