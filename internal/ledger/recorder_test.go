package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"solana-memebot-sim/internal/domain"
	"solana-memebot-sim/internal/storage"
	"solana-memebot-sim/internal/storage/memory"
)

var errDown = errors.New("store down")

// flakyTradeStore fails the first n inserts.
type flakyTradeStore struct {
	storage.TradeStore
	fails int
	calls int
}

func (s *flakyTradeStore) Insert(ctx context.Context, runID string, t *domain.Trade) error {
	s.calls++
	if s.calls <= s.fails {
		return errDown
	}
	return s.TradeStore.Insert(ctx, runID, t)
}

type flakyObservationStore struct {
	storage.ObservationStore
	fails int
	calls int
}

func (s *flakyObservationStore) InsertBulk(ctx context.Context, runID string, obs []*domain.Observation) error {
	s.calls++
	if s.calls <= s.fails {
		return errDown
	}
	return s.ObservationStore.InsertBulk(ctx, runID, obs)
}

func testTrade(id string) *domain.Trade {
	return &domain.Trade{TradeID: id, TokenID: "tok-" + id, OpenedAtMs: 1000, ClosedAtMs: 2000}
}

func testEvent(token string, ts int64) *domain.Observation {
	return &domain.Observation{TokenID: token, TimestampMs: ts, MarketCapUSD: 50_000, Price: 0.00005}
}

func newTestRecorder(t *testing.T, opts RecorderOptions) *Recorder {
	t.Helper()
	opts.RunID = "run-1"
	opts.InitialInterval = time.Millisecond
	r, err := NewRecorder(opts)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	return r
}

func TestNewRecorder_RequiresRunID(t *testing.T) {
	if _, err := NewRecorder(RecorderOptions{}); !errors.Is(err, ErrNoRunID) {
		t.Errorf("expected ErrNoRunID, got %v", err)
	}
}

func TestRecorder_BatchesEvents(t *testing.T) {
	ctx := context.Background()
	events := memory.NewObservationStore()
	r := newTestRecorder(t, RecorderOptions{Events: events, BatchSize: 3})

	for i := int64(1); i <= 4; i++ {
		if err := r.RecordEvent(ctx, testEvent("tok-a", i*1000)); err != nil {
			t.Fatalf("RecordEvent: %v", err)
		}
	}

	stored, _ := events.GetByRun(ctx, "run-1")
	if len(stored) != 3 {
		t.Errorf("expected one batch of 3 written, got %d", len(stored))
	}
	if pending, _ := r.Pending(); pending != 1 {
		t.Errorf("expected 1 pending event, got %d", pending)
	}

	if err := r.RecordRunSummary(ctx, &domain.RunSummary{RunID: "run-1"}); err != nil {
		t.Fatalf("RecordRunSummary: %v", err)
	}
	stored, _ = events.GetByRun(ctx, "run-1")
	if len(stored) != 4 {
		t.Errorf("expected summary to write remaining events, got %d", len(stored))
	}
}

func TestRecorder_TradeFailureIsRetriedOnFlush(t *testing.T) {
	ctx := context.Background()
	trades := &flakyTradeStore{TradeStore: memory.NewTradeStore(), fails: 2}
	r := newTestRecorder(t, RecorderOptions{Trades: trades, MaxTries: 3})

	if err := r.RecordTrade(ctx, testTrade("a")); !errors.Is(err, errDown) {
		t.Fatalf("expected store error, got %v", err)
	}
	if _, pending := r.Pending(); pending != 1 {
		t.Fatalf("expected 1 pending trade, got %d", pending)
	}

	if err := r.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if _, pending := r.Pending(); pending != 0 {
		t.Errorf("expected no pending trades, got %d", pending)
	}
	if _, err := trades.GetByID(ctx, "run-1", "a"); err != nil {
		t.Errorf("trade not stored after flush: %v", err)
	}
	if trades.calls != 3 {
		t.Errorf("expected 3 insert attempts, got %d", trades.calls)
	}
}

func TestRecorder_FlushGivesUp(t *testing.T) {
	ctx := context.Background()
	events := &flakyObservationStore{ObservationStore: memory.NewObservationStore(), fails: 100}
	r := newTestRecorder(t, RecorderOptions{Events: events, BatchSize: 1, MaxTries: 2})

	if err := r.RecordEvent(ctx, testEvent("tok-a", 1000)); err == nil {
		t.Fatal("expected batch write to fail")
	}
	if err := r.Flush(ctx); !errors.Is(err, errDown) {
		t.Errorf("expected flush to fail with store error, got %v", err)
	}
	if pending, _ := r.Pending(); pending != 1 {
		t.Errorf("failed events must stay pending, got %d", pending)
	}
	if events.calls != 3 {
		t.Errorf("expected 1 record attempt plus 2 flush attempts, got %d", events.calls)
	}
}

func TestRecorder_DuplicateTradeCountsAsWritten(t *testing.T) {
	ctx := context.Background()
	trades := memory.NewTradeStore()
	if err := trades.Insert(ctx, "run-1", testTrade("a")); err != nil {
		t.Fatal(err)
	}
	r := newTestRecorder(t, RecorderOptions{Trades: trades})

	if err := r.RecordTrade(ctx, testTrade("a")); err != nil {
		t.Errorf("duplicate trade should be ignored, got %v", err)
	}
}

func TestRecorder_NilStoresAreSkipped(t *testing.T) {
	ctx := context.Background()
	r := newTestRecorder(t, RecorderOptions{})

	if err := r.RecordEvent(ctx, testEvent("tok-a", 1000)); err != nil {
		t.Error(err)
	}
	if err := r.RecordTrade(ctx, testTrade("a")); err != nil {
		t.Error(err)
	}
	if err := r.RecordRunSummary(ctx, &domain.RunSummary{RunID: "run-1"}); err != nil {
		t.Error(err)
	}
	if err := r.Flush(ctx); err != nil {
		t.Error(err)
	}
}

func TestMulti_FansOutAndJoinsErrors(t *testing.T) {
	ctx := context.Background()
	good := memory.NewTradeStore()
	bad := &flakyTradeStore{TradeStore: memory.NewTradeStore(), fails: 1}

	m := Multi{
		newTestRecorder(t, RecorderOptions{Trades: good}),
		newTestRecorder(t, RecorderOptions{Trades: bad, MaxTries: 2}),
		Discard{},
	}

	err := m.RecordTrade(ctx, testTrade("a"))
	if !errors.Is(err, errDown) {
		t.Fatalf("expected joined store error, got %v", err)
	}
	if _, err := good.GetByID(ctx, "run-1", "a"); err != nil {
		t.Errorf("healthy member should still record: %v", err)
	}

	if err := m.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if _, err := bad.GetByID(ctx, "run-1", "a"); err != nil {
		t.Errorf("flaky member should record after flush: %v", err)
	}
}
