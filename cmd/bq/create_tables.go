package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/beanqueue/bq-go/internal/db"
	"github.com/beanqueue/bq-go/internal/logger"
)

func newCreateTablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create_tables",
		Short: "Create bq_tasks, bq_workers, and bq_events if they do not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			pool, err := db.NewPool(ctx, cfg.Database.URL)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := db.CreateTables(ctx, pool); err != nil {
				return err
			}

			logger.Get().Info().Msg("bq: tables created")
			return nil
		},
	}
}
