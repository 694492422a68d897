package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"solana-memebot-sim/internal/clock"
	"solana-memebot-sim/internal/domain"
	"solana-memebot-sim/internal/idhash"
)

// ErrNoFetchers is returned by NewExternal when no fetcher is configured.
var ErrNoFetchers = errors.New("source: external source needs at least one fetcher")

// Fetcher provides observations from an outside system.
type Fetcher interface {
	// FetchWindow returns observations with timestamps in (fromMs, toMs].
	// Results may be unordered and may contain several snapshots per token.
	// Wrap an error with backoff.Permanent to stop retries.
	FetchWindow(ctx context.Context, fromMs, toMs int64) ([]*domain.Observation, error)
}

// ExternalOptions configures an External source.
type ExternalOptions struct {
	Logger             *zap.Logger
	IntervalMs         int64         // window width for the first tick
	MaxTries           uint          // attempts per fetcher per tick
	InitialInterval    time.Duration // first retry delay
	MaxInterval        time.Duration // retry delay cap
	RequireMintAddress bool          // drop observations whose token id is not an ed25519 key
}

// External merges the batches of several fetchers into one sorted batch per tick.
// Fetchers run concurrently, but a batch is only returned once every fetcher has
// completed, so the tick loop stays single-threaded.
type External struct {
	fetchers []Fetcher
	opts     ExternalOptions
	logger   *zap.Logger
	lastMs   int64
	started  bool
}

var _ EventSource = (*External)(nil)

// NewExternal creates an External source over fetchers.
func NewExternal(fetchers []Fetcher, opts ExternalOptions) (*External, error) {
	if len(fetchers) == 0 {
		return nil, ErrNoFetchers
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.IntervalMs <= 0 {
		opts.IntervalMs = clock.MsPerHour / 60
	}
	if opts.MaxTries == 0 {
		opts.MaxTries = 3
	}
	if opts.InitialInterval <= 0 {
		opts.InitialInterval = 200 * time.Millisecond
	}
	if opts.MaxInterval <= 0 {
		opts.MaxInterval = opts.InitialInterval * 10
	}
	return &External{
		fetchers: fetchers,
		opts:     opts,
		logger:   opts.Logger.Named("external_source"),
	}, nil
}

// Next fetches the window (previous tick, tick] from every fetcher and merges the results.
func (e *External) Next(ctx context.Context, tick clock.Tick) ([]*domain.Observation, error) {
	fromMs := tick.TimestampMs - e.opts.IntervalMs
	if e.started {
		if tick.TimestampMs <= e.lastMs {
			return nil, fmt.Errorf("%w: timestamp %d after %d", ErrTickOutOfOrder, tick.TimestampMs, e.lastMs)
		}
		fromMs = e.lastMs
	}

	results := make([][]*domain.Observation, len(e.fetchers))
	g, gCtx := errgroup.WithContext(ctx)
	for i, f := range e.fetchers {
		g.Go(func() error {
			obs, err := e.fetch(gCtx, i, f, fromMs, tick.TimestampMs)
			if err != nil {
				return fmt.Errorf("fetcher %d: %w", i, err)
			}
			results[i] = obs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.started = true
	e.lastMs = tick.TimestampMs
	return e.merge(results, fromMs, tick.TimestampMs), nil
}

func (e *External) fetch(ctx context.Context, idx int, f Fetcher, fromMs, toMs int64) ([]*domain.Observation, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = e.opts.InitialInterval
	policy.MaxInterval = e.opts.MaxInterval

	notify := func(err error, d time.Duration) {
		e.logger.Warn("fetch failed, retrying",
			zap.Int("fetcher", idx),
			zap.Int64("to_ms", toMs),
			zap.Duration("backoff", d),
			zap.Error(err))
	}

	operation := func() ([]*domain.Observation, error) {
		return f.FetchWindow(ctx, fromMs, toMs)
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(e.opts.MaxTries),
		backoff.WithNotify(notify))
}

// merge keeps the latest in-window snapshot per token. On equal timestamps the
// earlier fetcher wins. The result holds copies, sorted by token id.
func (e *External) merge(results [][]*domain.Observation, fromMs, toMs int64) []*domain.Observation {
	latest := make(map[string]*domain.Observation)
	for _, batch := range results {
		for _, o := range batch {
			if o == nil {
				continue
			}
			if o.TimestampMs <= fromMs || o.TimestampMs > toMs {
				e.logger.Debug("dropping out-of-window observation",
					zap.String("token", o.TokenID),
					zap.Int64("timestamp_ms", o.TimestampMs))
				continue
			}
			if e.opts.RequireMintAddress {
				if err := idhash.ValidateMintAddress(o.TokenID); err != nil {
					e.logger.Warn("dropping observation with invalid token id",
						zap.String("token", o.TokenID),
						zap.Error(err))
					continue
				}
			}
			if cur, ok := latest[o.TokenID]; ok && cur.TimestampMs >= o.TimestampMs {
				continue
			}
			latest[o.TokenID] = o
		}
	}

	out := make([]*domain.Observation, 0, len(latest))
	for _, o := range latest {
		c := *o
		c.Score = 0
		out = append(out, &c)
	}
	SortObservations(out)
	return out
}
