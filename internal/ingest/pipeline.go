// Package ingest reads DHCP and HTTP proxy logs from disk and drives them
// through the grammars, the lease index builder, the correlator and the
// configured sinks.
package ingest

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/MrSnakeDoc/leasetrail/internal/correlate"
	"github.com/MrSnakeDoc/leasetrail/internal/domain"
	"github.com/MrSnakeDoc/leasetrail/internal/grammar"
	"github.com/MrSnakeDoc/leasetrail/internal/index"
	"github.com/MrSnakeDoc/leasetrail/internal/logger"
	"github.com/MrSnakeDoc/leasetrail/internal/metrics"
	"github.com/MrSnakeDoc/leasetrail/internal/store"
	"github.com/MrSnakeDoc/leasetrail/internal/utils"
)

// MaxLineSize bounds a single log line.
const MaxLineSize = 16 << 20

// maximum bytes of a rejected line echoed into the log
const echoLimit = 256

// Stats counts what a pass over a set of files saw.
type Stats struct {
	Files   int
	Lines   int
	Parsed  int
	Failed  int
	Acks    int                       // DHCP pass only
	Records map[domain.DropReason]int // HTTP pass only
}

type Pipeline struct {
	log      logger.Logger
	sink     store.Sink
	metrics  metrics.Recorder
	failures *FailureLog
}

// New creates a pipeline. failures may be nil.
func New(log logger.Logger, sink store.Sink, rec metrics.Recorder, failures *FailureLog) *Pipeline {
	return &Pipeline{log: log, sink: sink, metrics: rec, failures: failures}
}

// OnConflict is an index.ConflictFunc that reports a device name conflict.
func (p *Pipeline) OnConflict(mac, kept, rejected string) {
	p.metrics.IncConflicts()
	p.log.Warn("device name conflict, keeping first name",
		logger.String("mac", mac),
		logger.String("kept", kept),
		logger.String("rejected", rejected))
}

// BuildIndex parses every DHCP line under paths into b and hands each
// accepted Ack to the sink.
func (p *Pipeline) BuildIndex(ctx context.Context, paths []string, b *index.Builder) (Stats, error) {
	return p.run(ctx, metrics.StreamDHCP, paths, func(st *Stats, line []byte) error {
		entry, err := grammar.ParseDHCP(line)
		if err != nil {
			return err
		}
		if !b.Add(entry) {
			return nil
		}
		st.Acks++
		ack, _ := entry.AckPayload()
		return p.sink.WriteLease(ctx, entry.Time, ack)
	})
}

// Correlate parses every HTTP line under paths and writes the records c
// attributes to an allowed device.
func (p *Pipeline) Correlate(ctx context.Context, paths []string, c *correlate.Correlator) (Stats, error) {
	return p.run(ctx, metrics.StreamHTTP, paths, func(st *Stats, line []byte) error {
		rec, err := grammar.ParseHTTP(line)
		if err != nil {
			return err
		}
		out, reason := c.Correlate(rec)
		st.Records[reason]++
		p.metrics.IncRecords(reason.String())
		if reason != domain.Kept {
			return nil
		}
		return p.sink.WriteRecord(ctx, out)
	})
}

// lineFunc handles one non-blank line. A *grammar.ParseError is reported
// and the line skipped; any other error aborts the pass.
type lineFunc func(st *Stats, line []byte) error

func (p *Pipeline) run(ctx context.Context, stream string, paths []string, fn lineFunc) (Stats, error) {
	total := Stats{Records: make(map[domain.DropReason]int)}

	files, err := Expand(paths)
	if err != nil {
		return total, err
	}

	for _, path := range files {
		fileStats, err := p.file(ctx, stream, path, &total, fn)
		total.Files++
		total.Lines += fileStats.Lines
		total.Parsed += fileStats.Parsed
		total.Failed += fileStats.Failed
		if err != nil {
			return total, err
		}
		p.log.Info("file processed",
			logger.String("stream", stream),
			logger.String("file", path),
			logger.Int("lines", fileStats.Lines),
			logger.Int("parsed", fileStats.Parsed),
			logger.Int("failed", fileStats.Failed))
	}

	p.log.Info("stream processed",
		logger.String("stream", stream),
		logger.Int("files", total.Files),
		logger.Int("lines", total.Lines),
		logger.Int("parsed", total.Parsed),
		logger.Int("failed", total.Failed))
	return total, nil
}

func (p *Pipeline) file(ctx context.Context, stream, path string, total *Stats, fn lineFunc) (Stats, error) {
	var st Stats

	r, err := Open(path)
	if err != nil {
		return st, fmt.Errorf("open %s: %w", path, err)
	}
	defer utils.MustClose(r, p.log)

	err = scanLines(r, func(lineNo int, line []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		st.Lines++
		var perr *grammar.ParseError
		if err := fn(total, line); errors.As(err, &perr) {
			st.Failed++
			return p.reject(stream, path, lineNo, line, perr)
		} else if err != nil {
			return err
		}
		st.Parsed++
		p.metrics.IncLines(stream, metrics.ResultParsed)
		return nil
	})
	if err != nil {
		return st, fmt.Errorf("%s: %w", path, err)
	}
	return st, nil
}

func (p *Pipeline) reject(stream, path string, lineNo int, line []byte, perr error) error {
	result := metrics.ResultMalformed
	if errors.Is(perr, grammar.ErrOutOfRange) {
		result = metrics.ResultOutOfRange
	}
	p.metrics.IncLines(stream, result)

	echo := line
	if len(echo) > echoLimit {
		echo = echo[:echoLimit]
	}
	p.log.Warn("skipping unparseable line",
		logger.String("stream", stream),
		logger.String("file", path),
		logger.Int("line", lineNo),
		logger.ByteString("text", echo),
		logger.Error(perr))

	if err := p.failures.Write(line); err != nil {
		return fmt.Errorf("write failures file: %w", err)
	}
	return nil
}

// scanLines calls fn with every non-blank line of r, numbered from 1.
// A trailing carriage return is kept: both grammars treat it as whitespace.
func scanLines(r io.Reader, fn func(lineNo int, line []byte) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
	sc.Split(splitNewline)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		if err := fn(lineNo, line); err != nil {
			return err
		}
	}
	return sc.Err()
}

// splitNewline splits on '\n' only, unlike bufio.ScanLines which also drops
// a trailing '\r'.
func splitNewline(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
