package loop

import (
	"context"
	"errors"
	"fmt"

	"github.com/beanqueue/bq-go/internal/db"
	"github.com/beanqueue/bq-go/internal/dispatch"
	"github.com/beanqueue/bq-go/internal/logger"
	"github.com/beanqueue/bq-go/internal/metrics"
	"github.com/beanqueue/bq-go/internal/models"
)

// drainListenLoop alternates draining eligible work (LISTENING -> DRAINING)
// with blocking on notifications (-> LISTENING) until ctx is canceled.
func (w *Worker) drainListenLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.stopCh:
			return nil
		default:
		}

		w.setState(StateDraining)
		if err := w.drain(ctx); err != nil {
			return fmt.Errorf("loop: drain: %w", err)
		}

		w.setState(StateListening)
		conn, err := w.newListenConn(ctx)
		if err != nil {
			return fmt.Errorf("loop: open listen conn: %w", err)
		}

		_, err = dispatch.Poll(ctx, conn, w.cfg.PollTimeout)
		conn.Close(ctx)
		if err != nil {
			if errors.Is(err, dispatch.ErrTimeout) {
				metrics.PollTimeouts.Inc()
				continue
			}
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("loop: poll: %w", err)
		}
	}
}

// drain repeatedly claims and processes batches until one comes back empty.
func (w *Worker) drain(ctx context.Context) error {
	for {
		tasks, err := w.dispatch.Dispatch(ctx, w.cfg.Channels, w.worker.ID.String(), w.cfg.BatchSize)
		if err != nil {
			return err
		}
		if len(tasks) == 0 {
			return nil
		}

		for _, channel := range uniqueChannels(tasks) {
			metrics.RecordDispatch(channel, countChannel(tasks, channel))
		}

		if err := w.processBatch(ctx, tasks); err != nil {
			return err
		}
	}
}

func (w *Worker) processBatch(ctx context.Context, tasks []*models.Task) error {
	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("loop: begin batch tx: %w", err)
	}
	defer tx.Rollback(ctx)

	notified := db.NewNotifySet()
	for _, task := range tasks {
		before := task.State
		if err := w.registry.Process(ctx, tx, task); err != nil {
			return fmt.Errorf("loop: process task %s: %w", task.ID, err)
		}
		logOutcome(task, before)
		metrics.RecordCompletion(task.Channel, task.Module, task.FuncName, string(task.State), 0)

		if task.State == models.TaskPending {
			if err := notified.NotifyAll(ctx, tx, []string{task.Channel}); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("loop: commit batch: %w", err)
	}
	return nil
}

func logOutcome(task *models.Task, before models.TaskState) {
	taskLog := logger.WithTask(task.ID.String())
	event := taskLog.Info()
	if task.State == models.TaskFailed {
		event = taskLog.Error()
	}
	event.
		Str("channel", task.Channel).
		Str("from_state", string(before)).
		Str("to_state", string(task.State)).
		Msg("task processed")
}

func uniqueChannels(tasks []*models.Task) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, t := range tasks {
		if _, ok := seen[t.Channel]; !ok {
			seen[t.Channel] = struct{}{}
			out = append(out, t.Channel)
		}
	}
	return out
}

func countChannel(tasks []*models.Task, channel string) int {
	n := 0
	for _, t := range tasks {
		if t.Channel == channel {
			n++
		}
	}
	return n
}
