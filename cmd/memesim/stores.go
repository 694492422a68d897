package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"solana-memebot-sim/internal/reporting"
	"solana-memebot-sim/internal/storage"
	chstore "solana-memebot-sim/internal/storage/clickhouse"
	"solana-memebot-sim/internal/storage/memory"
	"solana-memebot-sim/internal/storage/migrations"
	pgstore "solana-memebot-sim/internal/storage/postgres"
	"solana-memebot-sim/internal/storage/sqlite"
)

// Storage backends.
const (
	storageMemory   = "memory"
	storagePostgres = "postgres"
	storageSQLite   = "sqlite"
)

type storeFlags struct {
	kind          string
	postgresDSN   string
	clickhouseDSN string
	sqlitePath    string
	autoMigrate   bool
}

func (f *storeFlags) register(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVar(&f.kind, "storage", storageMemory, "run storage: memory, postgres or sqlite")
	pf.StringVar(&f.postgresDSN, "postgres-dsn", "", "PostgreSQL connection string (env MEMESIM_POSTGRES_DSN)")
	pf.StringVar(&f.clickhouseDSN, "clickhouse-dsn", "", "ClickHouse connection string for the analytics event copy (env MEMESIM_CLICKHOUSE_DSN)")
	pf.StringVar(&f.sqlitePath, "sqlite-path", "memesim.sqlite", "SQLite journal file (env MEMESIM_SQLITE_PATH)")
	pf.BoolVar(&f.autoMigrate, "auto-migrate", true, "apply embedded migrations when connecting")
}

// resolve fills empty flags from the environment.
func (f *storeFlags) resolve(cmd *cobra.Command) {
	fromEnv := func(flag, key string, dst *string) {
		if cmd.Flags().Changed(flag) {
			return
		}
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	fromEnv("postgres-dsn", "MEMESIM_POSTGRES_DSN", &f.postgresDSN)
	fromEnv("clickhouse-dsn", "MEMESIM_CLICKHOUSE_DSN", &f.clickhouseDSN)
	fromEnv("sqlite-path", "MEMESIM_SQLITE_PATH", &f.sqlitePath)
	if !cmd.Flags().Changed("storage") {
		if v := os.Getenv("MEMESIM_STORAGE"); v != "" {
			f.kind = v
		}
	}
}

// backend is the opened storage of one command invocation.
type backend struct {
	stores    storage.Stores
	analytics *chstore.ObservationStore // nil without --clickhouse-dsn
	closers   []func()
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// openBackend connects the configured run storage and the optional
// ClickHouse analytics store.
func (f *storeFlags) openBackend(ctx context.Context, log *zap.Logger) (*backend, error) {
	b := &backend{}

	switch f.kind {
	case storageMemory:
		b.stores = memory.NewStores()

	case storagePostgres:
		if f.postgresDSN == "" {
			return nil, fmt.Errorf("--postgres-dsn is required with --storage %s", storagePostgres)
		}
		pool, err := pgstore.NewPool(ctx, f.postgresDSN)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, pool.Close)
		if f.autoMigrate {
			if err := migrations.RunPostgresMigrations(ctx, pool, log); err != nil {
				b.Close()
				return nil, err
			}
		}
		b.stores = pgstore.NewStores(pool)

	case storageSQLite:
		db, err := sqlite.Open(f.sqlitePath)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() { _ = db.Close() })
		b.stores = db.Stores()

	default:
		return nil, fmt.Errorf("unknown storage %q (memory, postgres, sqlite)", f.kind)
	}

	if f.clickhouseDSN != "" {
		conn, err := f.openClickhouse(ctx, log)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.closers = append(b.closers, func() { _ = conn.Close() })
		b.analytics = chstore.NewObservationStore(conn)
	}

	log.Debug("storage opened",
		zap.String("storage", f.kind),
		zap.Bool("analytics", b.analytics != nil))
	return b, nil
}

func (f *storeFlags) openClickhouse(ctx context.Context, log *zap.Logger) (*chstore.Conn, error) {
	if f.autoMigrate {
		return migrations.RunClickhouseMigrations(ctx, f.clickhouseDSN, log)
	}
	return chstore.NewConn(ctx, f.clickhouseDSN)
}

// tokenActivity adapts the ClickHouse per-token rollup to the report generator.
type tokenActivity struct {
	store *chstore.ObservationStore
}

var _ reporting.TokenActivitySource = tokenActivity{}

func (t tokenActivity) TokenActivity(ctx context.Context, runID string, limit int) ([]reporting.TokenActivityRow, error) {
	stats, err := t.store.TokenStats(ctx, runID, limit)
	if err != nil {
		return nil, err
	}
	rows := make([]reporting.TokenActivityRow, len(stats))
	for i, s := range stats {
		rows[i] = reporting.TokenActivityRow{
			TokenID:      s.TokenID,
			Observations: s.Observations,
			FirstSeenMs:  s.FirstSeenMs,
			LastSeenMs:   s.LastSeenMs,
			PeakScore:    s.PeakScore,
			PeakMcapUSD:  s.PeakMarketCapUSD,
			Graduated:    s.Graduated,
		}
	}
	return rows, nil
}

// reportGenerator builds a report generator over b, with token activity when
// the analytics store is available.
func (b *backend) reportGenerator(activityLimit int) *reporting.Generator {
	g := reporting.NewGenerator(b.stores.Trades, b.stores.Runs)
	if b.analytics != nil {
		g = g.WithTokenActivity(tokenActivity{store: b.analytics}, activityLimit)
	}
	return g
}
