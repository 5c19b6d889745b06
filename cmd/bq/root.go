package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/beanqueue/bq-go/internal/config"
	"github.com/beanqueue/bq-go/internal/logger"
)

var cfg *config.Config

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "bq",
		Short:         "BeanQueue: a Postgres-backed durable task queue",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg = loaded

			logger.Init(cfg.LogLevel, os.Getenv("ENV") != "production")
			return nil
		},
	}

	root.AddCommand(newCreateTablesCmd())
	root.AddCommand(newProcessCmd())
	root.AddCommand(newSubmitCmd())

	return root
}
