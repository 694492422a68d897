package main

import (
	"errors"

	"github.com/spf13/cobra"

	"solana-memebot-sim/internal/storage/migrations"
	pgstore "solana-memebot-sim/internal/storage/postgres"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded Postgres and ClickHouse migrations",
		Long: `Apply the embedded SQL migrations to the databases named by --postgres-dsn
and --clickhouse-dsn. Migrations are idempotent. SQLite journals create
their schema on open and need no migration.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a.store.resolve(cmd)
			f := a.store

			if f.postgresDSN == "" && f.clickhouseDSN == "" {
				return errors.New("nothing to migrate: set --postgres-dsn and/or --clickhouse-dsn")
			}

			if f.postgresDSN != "" {
				pool, err := pgstore.NewPool(ctx, f.postgresDSN)
				if err != nil {
					return err
				}
				defer pool.Close()
				if err := migrations.RunPostgresMigrations(ctx, pool, a.log); err != nil {
					return err
				}
				a.log.Info("postgres migrated")
			}

			if f.clickhouseDSN != "" {
				conn, err := migrations.RunClickhouseMigrations(ctx, f.clickhouseDSN, a.log)
				if err != nil {
					return err
				}
				defer conn.Close()
				a.log.Info("clickhouse migrated")
			}
			return nil
		},
	}
}
