// Package store defines where accepted leases and correlated records go.
package store

import (
	"context"
	"errors"

	"github.com/MrSnakeDoc/leasetrail/internal/domain"
)

// Sink receives the output of one ingestion run.
//
// Writes may be buffered; nothing is guaranteed durable until Commit returns.
type Sink interface {
	// WriteLease records an accepted DHCP Ack.
	WriteLease(ctx context.Context, at domain.Timestamp, ack domain.Ack) error
	// WriteRecord records an HTTP record that passed correlation.
	WriteRecord(ctx context.Context, rec domain.Correlated) error
	Commit(ctx context.Context) error
	Close() error
}

// Fanout forwards every call to each sink in order.
type Fanout []Sink

func (f Fanout) WriteLease(ctx context.Context, at domain.Timestamp, ack domain.Ack) error {
	for _, s := range f {
		if err := s.WriteLease(ctx, at, ack); err != nil {
			return err
		}
	}
	return nil
}

func (f Fanout) WriteRecord(ctx context.Context, rec domain.Correlated) error {
	for _, s := range f {
		if err := s.WriteRecord(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

func (f Fanout) Commit(ctx context.Context) error {
	for _, s := range f {
		if err := s.Commit(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink, even after a failure, and joins the errors.
func (f Fanout) Close() error {
	var errs []error
	for _, s := range f {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops everything.
type Discard struct{}

func (Discard) WriteLease(context.Context, domain.Timestamp, domain.Ack) error { return nil }
func (Discard) WriteRecord(context.Context, domain.Correlated) error          { return nil }
func (Discard) Commit(context.Context) error                                  { return nil }
func (Discard) Close() error                                                  { return nil }
