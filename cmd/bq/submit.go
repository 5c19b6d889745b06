package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	bq "github.com/beanqueue/bq-go"
	"github.com/beanqueue/bq-go/internal/db"
)

func newSubmitCmd() *cobra.Command {
	var kwargsJSON string

	cmd := &cobra.Command{
		Use:   "submit <channel> <module> <func>",
		Short: "Insert a single task",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubmit(args[0], args[1], args[2], kwargsJSON)
		},
	}

	cmd.Flags().StringVar(&kwargsJSON, "kwargs", "{}", "JSON object passed to the handler as kwargs")
	return cmd
}

func runSubmit(channel, module, fn, kwargsJSON string) error {
	var kwargs json.RawMessage
	if err := json.Unmarshal([]byte(kwargsJSON), &kwargs); err != nil {
		return fmt.Errorf("parse --kwargs: %w", err)
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	app := bq.New(pool)
	task := &bq.Task{
		ID:       uuid.New(),
		State:    bq.TaskPending,
		Channel:  channel,
		Module:   module,
		FuncName: fn,
		Kwargs:   kwargs,
	}
	if err := app.InsertTask(ctx, task); err != nil {
		return err
	}

	fmt.Println(task.ID)
	return nil
}
