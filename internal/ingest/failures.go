package ingest

import (
	"bufio"
	"fmt"
	"os"
)

// FailureLog collects the raw text of every line no grammar accepted, one
// per line, so they can be inspected or replayed later. A nil *FailureLog
// discards everything.
type FailureLog struct {
	f     *os.File
	w     *bufio.Writer
	count int
}

// OpenFailureLog truncates or creates path. An empty path returns nil.
func OpenFailureLog(path string) (*FailureLog, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("open failures file: %w", err)
	}
	return &FailureLog{f: f, w: bufio.NewWriter(f)}, nil
}

func (l *FailureLog) Write(line []byte) error {
	if l == nil {
		return nil
	}
	l.count++
	if _, err := l.w.Write(line); err != nil {
		return err
	}
	return l.w.WriteByte('\n')
}

// Count returns the number of lines written.
func (l *FailureLog) Count() int {
	if l == nil {
		return 0
	}
	return l.count
}

func (l *FailureLog) Close() error {
	if l == nil {
		return nil
	}
	if err := l.w.Flush(); err != nil {
		_ = l.f.Close()
		return err
	}
	return l.f.Close()
}
