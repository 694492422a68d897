package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"solana-memebot-sim/internal/domain"
	"solana-memebot-sim/internal/storage"
)

// ErrNoRunID is returned by NewRecorder when RunID is empty.
var ErrNoRunID = errors.New("ledger: run id is required")

// DefaultBatchSize is the number of events buffered before a bulk insert.
const DefaultBatchSize = 500

// RecorderOptions configures a Recorder. Nil stores are skipped.
type RecorderOptions struct {
	RunID           string
	Events          storage.ObservationStore
	Trades          storage.TradeStore
	Runs            storage.RunStore
	Logger          *zap.Logger
	BatchSize       int
	MaxTries        uint          // attempts per pending write during Flush
	InitialInterval time.Duration // first Flush retry delay
}

// Recorder writes run records to storage. Events are buffered and inserted in
// batches; anything that fails to write is kept and retried on Flush.
type Recorder struct {
	mu   sync.Mutex
	opts RecorderOptions
	log  *zap.Logger

	events      []*domain.Observation
	trades      []*domain.Trade
	summary     *domain.RunSummary
	summaryDone bool
}

var (
	_ TradeLedger = (*Recorder)(nil)
	_ Flusher     = (*Recorder)(nil)
)

// NewRecorder creates a Recorder for one run.
func NewRecorder(opts RecorderOptions) (*Recorder, error) {
	if opts.RunID == "" {
		return nil, ErrNoRunID
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.MaxTries == 0 {
		opts.MaxTries = 5
	}
	if opts.InitialInterval <= 0 {
		opts.InitialInterval = 100 * time.Millisecond
	}
	return &Recorder{
		opts: opts,
		log:  opts.Logger.Named("ledger").With(zap.String("run_id", opts.RunID)),
	}, nil
}

// RunID returns the run this recorder writes for.
func (r *Recorder) RunID() string {
	return r.opts.RunID
}

// RecordEvent buffers obs and writes the buffer once it reaches the batch size.
func (r *Recorder) RecordEvent(ctx context.Context, obs *domain.Observation) error {
	if r.opts.Events == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c := *obs
	r.events = append(r.events, &c)
	if len(r.events) < r.opts.BatchSize {
		return nil
	}
	return r.writeEvents(ctx)
}

// RecordTrade writes t. On failure the trade is kept for Flush.
func (r *Recorder) RecordTrade(ctx context.Context, t *domain.Trade) error {
	if r.opts.Trades == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c := *t
	if err := r.insertTrade(ctx, &c); err != nil {
		r.trades = append(r.trades, &c)
		return err
	}
	return nil
}

// RecordRunSummary writes pending events and then s. On failure s is kept for Flush.
func (r *Recorder) RecordRunSummary(ctx context.Context, s *domain.RunSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	if r.opts.Events != nil && len(r.events) > 0 {
		errs = append(errs, r.writeEvents(ctx))
	}
	if r.opts.Runs != nil {
		r.summary = s.Clone()
		r.summaryDone = false
		if err := r.insertSummary(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Pending returns how many events and trades are waiting to be written.
func (r *Recorder) Pending() (events, trades int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events), len(r.trades)
}

// Flush retries every pending write with exponential backoff.
func (r *Recorder) Flush(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.events) > 0 {
		if err := r.retry(ctx, "events", func() error { return r.writeEvents(ctx) }); err != nil {
			return err
		}
	}

	for len(r.trades) > 0 {
		t := r.trades[0]
		if err := r.retry(ctx, "trade", func() error { return r.insertTrade(ctx, t) }); err != nil {
			return err
		}
		r.trades = r.trades[1:]
	}

	if r.summary != nil && !r.summaryDone {
		if err := r.retry(ctx, "run summary", func() error { return r.insertSummary(ctx) }); err != nil {
			return err
		}
	}
	return nil
}

func (r *Recorder) retry(ctx context.Context, what string, op func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = r.opts.InitialInterval

	notify := func(err error, d time.Duration) {
		r.log.Warn("ledger write failed, retrying",
			zap.String("record", what),
			zap.Duration("backoff", d),
			zap.Error(err))
	}

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, op()
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(r.opts.MaxTries),
		backoff.WithNotify(notify))
	if err != nil {
		return fmt.Errorf("flush %s: %w", what, err)
	}
	return nil
}

// writeEvents inserts the whole event buffer. Must hold r.mu.
func (r *Recorder) writeEvents(ctx context.Context) error {
	err := r.opts.Events.InsertBulk(ctx, r.opts.RunID, r.events)
	if err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		return fmt.Errorf("record %d events: %w", len(r.events), err)
	}
	if err != nil {
		r.log.Warn("events already recorded, dropping batch", zap.Int("events", len(r.events)))
	}
	r.events = r.events[:0]
	return nil
}

// insertTrade treats an already stored trade as written.
func (r *Recorder) insertTrade(ctx context.Context, t *domain.Trade) error {
	err := r.opts.Trades.Insert(ctx, r.opts.RunID, t)
	if err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		return fmt.Errorf("record trade %s: %w", t.TradeID, err)
	}
	return nil
}

func (r *Recorder) insertSummary(ctx context.Context) error {
	err := r.opts.Runs.Insert(ctx, r.summary)
	if err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		return fmt.Errorf("record run summary: %w", err)
	}
	r.summaryDone = true
	return nil
}
