// Package ledger persists what a simulation run produces: scored token
// events, closed trades and the final run summary.
//
// Persistence never decides the outcome of a run. The runner logs and counts
// ledger errors and carries on; Recorder keeps whatever it failed to write and
// retries it on Flush.
package ledger

import (
	"context"
	"errors"

	"solana-memebot-sim/internal/domain"
)

// TradeLedger receives the records of one run.
type TradeLedger interface {
	RecordEvent(ctx context.Context, obs *domain.Observation) error
	RecordTrade(ctx context.Context, t *domain.Trade) error
	RecordRunSummary(ctx context.Context, s *domain.RunSummary) error
}

// Flusher is implemented by ledgers that buffer writes.
type Flusher interface {
	Flush(ctx context.Context) error
}

// Discard is a ledger that drops every record.
type Discard struct{}

func (Discard) RecordEvent(context.Context, *domain.Observation) error     { return nil }
func (Discard) RecordTrade(context.Context, *domain.Trade) error           { return nil }
func (Discard) RecordRunSummary(context.Context, *domain.RunSummary) error { return nil }

// Multi fans every record out to several ledgers. All ledgers are attempted;
// their errors are joined.
type Multi []TradeLedger

var (
	_ TradeLedger = Discard{}
	_ TradeLedger = Multi(nil)
	_ Flusher     = Multi(nil)
)

// RecordEvent implements TradeLedger.
func (m Multi) RecordEvent(ctx context.Context, obs *domain.Observation) error {
	var errs []error
	for _, l := range m {
		errs = append(errs, l.RecordEvent(ctx, obs))
	}
	return errors.Join(errs...)
}

// RecordTrade implements TradeLedger.
func (m Multi) RecordTrade(ctx context.Context, t *domain.Trade) error {
	var errs []error
	for _, l := range m {
		errs = append(errs, l.RecordTrade(ctx, t))
	}
	return errors.Join(errs...)
}

// RecordRunSummary implements TradeLedger.
func (m Multi) RecordRunSummary(ctx context.Context, s *domain.RunSummary) error {
	var errs []error
	for _, l := range m {
		errs = append(errs, l.RecordRunSummary(ctx, s))
	}
	return errors.Join(errs...)
}

// Flush flushes every member that buffers writes.
func (m Multi) Flush(ctx context.Context) error {
	var errs []error
	for _, l := range m {
		if f, ok := l.(Flusher); ok {
			errs = append(errs, f.Flush(ctx))
		}
	}
	return errors.Join(errs...)
}
