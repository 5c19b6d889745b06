package loop

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/beanqueue/bq-go/internal/db"
	"github.com/beanqueue/bq-go/internal/logger"
	"github.com/beanqueue/bq-go/internal/metrics"
	"github.com/beanqueue/bq-go/internal/models"
)

// heartbeatLoop runs as an independent goroutine from the drain/listen
// cycle: every HeartbeatPeriod it reaps dead peers, checks its own row is
// still RUNNING, and writes its own heartbeat. It makes progress regardless
// of how long the drain loop is currently blocked on a handler.
func (w *Worker) heartbeatLoop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.cfg.HeartbeatPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			if !w.heartbeatCycle(ctx) {
				os.Exit(1)
			}
		}
	}
}

// heartbeatCycle runs one heartbeat iteration. It returns false if the
// current worker's own row is no longer RUNNING, signaling the process must
// exit immediately per spec's "correctness over continued progress" rule.
func (w *Worker) heartbeatCycle(ctx context.Context) bool {
	workerLog := logger.WithWorker(w.worker.ID.String())

	if err := w.reapDeadPeers(ctx); err != nil {
		log.Error().Err(err).Msg("reap dead peers failed")
	}

	current, err := w.workers.GetWorker(ctx, w.worker.ID)
	if err != nil {
		workerLog.Error().Err(err).Msg("fetch own worker row failed")
		return true
	}
	if current == nil || current.State != models.WorkerRunning {
		workerLog.Error().Msg("own worker row no longer RUNNING, exiting")
		return false
	}

	if err := w.workers.UpdateHeartbeat(ctx, w.worker.ID); err != nil {
		workerLog.Error().Err(err).Msg("update heartbeat failed")
		return true
	}
	metrics.HeartbeatsSent.Inc()
	return true
}

func (w *Worker) reapDeadPeers(ctx context.Context) error {
	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	txWorkers := w.workers.WithExecutor(tx)
	dead, err := txWorkers.FetchDeadWorkers(ctx, w.cfg.HeartbeatTimeout.Seconds(), 5)
	if err != nil {
		return err
	}
	if len(dead) == 0 {
		return tx.Commit(ctx)
	}

	ids := make([]uuid.UUID, len(dead))
	for i, d := range dead {
		ids[i] = d.ID
	}

	count, channels, err := txWorkers.RescheduleDeadTasks(ctx, ids)
	if err != nil {
		return err
	}

	set := db.NewNotifySet()
	if err := set.NotifyAll(ctx, tx, channels); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Info().Int("dead_workers", len(dead)).Int64("tasks_rescheduled", count).Msg("reaped dead peers")
	metrics.RecordReap(len(dead), int(count))
	return nil
}
