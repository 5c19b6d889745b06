// Package loop orchestrates a bq worker process: the drain loop (claim,
// process, commit), the LISTEN/NOTIFY wait between drains, the heartbeat
// goroutine, and graceful shutdown. It is the Go analogue of the source's
// cmds/process.py entrypoint.
package loop

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/beanqueue/bq-go/internal/db"
	"github.com/beanqueue/bq-go/internal/dispatch"
	"github.com/beanqueue/bq-go/internal/logger"
	"github.com/beanqueue/bq-go/internal/metrics"
	"github.com/beanqueue/bq-go/internal/models"
	"github.com/beanqueue/bq-go/internal/registry"
	"github.com/beanqueue/bq-go/internal/workersvc"
)

// log is this package's component-tagged logger; every log line loop emits
// carries component=loop so operators can filter the drain/heartbeat
// machinery apart from dispatch/registry/workersvc output.
var log = logger.WithComponent("loop")

// State is the worker's lifecycle state, distinct from models.WorkerState:
// it tracks this process's own position in the state machine, including the
// pre-registration INIT state the persisted Worker row never has.
type State int

const (
	StateInit State = iota
	StateRegistered
	StateListening
	StateDraining
	StateShutdown
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateRegistered:
		return "registered"
	case StateListening:
		return "listening"
	case StateDraining:
		return "draining"
	case StateShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// Config parameterizes one Worker's behavior.
type Config struct {
	Channels         []string
	BatchSize        int
	PollTimeout      time.Duration
	HeartbeatPeriod  time.Duration
	HeartbeatTimeout time.Duration
	ShutdownTimeout  time.Duration

	// TaskAdapter and WorkerAdapter override dispatch/workersvc's default
	// storage adapters, per internal/config.ModelsConfig. Nil uses the
	// default bq_tasks/bq_workers adapters.
	TaskAdapter   dispatch.TaskAdapter
	WorkerAdapter workersvc.WorkerAdapter
}

// Worker runs the drain/listen cycle on one process, plus an independent
// heartbeat goroutine, until Shutdown is called or its context is canceled.
type Worker struct {
	pool     *pgxpool.Pool
	registry *registry.Registry
	cfg      Config
	worker   *models.Worker
	dispatch *dispatch.Service
	workers  *workersvc.Service

	stateMu sync.RWMutex
	state   State

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New constructs a Worker bound to pool and reg, subscribed to cfg.Channels.
func New(pool *pgxpool.Pool, reg *registry.Registry, cfg Config) *Worker {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1
	}

	var dispatchOpts []dispatch.Option
	if cfg.TaskAdapter != nil {
		dispatchOpts = append(dispatchOpts, dispatch.WithTaskAdapter(cfg.TaskAdapter))
	}
	var workerOpts []workersvc.Option
	if cfg.WorkerAdapter != nil {
		workerOpts = append(workerOpts, workersvc.WithWorkerAdapter(cfg.WorkerAdapter))
	}

	return &Worker{
		pool:     pool,
		registry: reg,
		cfg:      cfg,
		dispatch: dispatch.New(pool, dispatchOpts...),
		workers:  workersvc.New(pool, workerOpts...),
		state:    StateInit,
		stopCh:   make(chan struct{}),
	}
}

// State returns the worker's current lifecycle state.
func (w *Worker) State() State {
	w.stateMu.RLock()
	defer w.stateMu.RUnlock()
	return w.state
}

func (w *Worker) setState(s State) {
	w.stateMu.Lock()
	w.state = s
	w.stateMu.Unlock()
}

// WorkerState adapts the process's lifecycle State to the persisted row's
// WorkerState, for internal/healthz's StateFunc.
func (w *Worker) WorkerState() models.WorkerState {
	if w.State() == StateShutdown {
		return models.WorkerShutdown
	}
	return models.WorkerRunning
}

// ID returns the underlying Worker row's id. Valid only after Run has
// registered the worker (state >= StateRegistered).
func (w *Worker) ID() uuid.UUID {
	w.stateMu.RLock()
	defer w.stateMu.RUnlock()
	if w.worker == nil {
		return uuid.Nil
	}
	return w.worker.ID
}

// Run registers the worker row, starts the heartbeat goroutine, and blocks
// running the drain/listen cycle until ctx is canceled.
func (w *Worker) Run(ctx context.Context, name string) error {
	worker := workersvc.MakeWorker(name, w.cfg.Channels)
	if err := w.insertWorker(ctx, worker); err != nil {
		return fmt.Errorf("loop: register worker: %w", err)
	}
	w.worker = worker
	w.setState(StateRegistered)
	log.Info().Str("worker_id", worker.ID.String()).Strs("channels", w.cfg.Channels).Msg("worker registered")

	w.wg.Add(1)
	go w.heartbeatLoop(ctx)

	err := w.drainListenLoop(ctx)

	w.Shutdown(context.Background())
	return err
}

func (w *Worker) insertWorker(ctx context.Context, worker *models.Worker) error {
	_, err := w.pool.Exec(ctx, `
		INSERT INTO bq_workers (id, state, name, channels, last_heartbeat, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, worker.ID, worker.State, worker.Name, worker.Channels, worker.LastHeartbeat, worker.CreatedAt)
	return err
}

// Shutdown reschedules this worker's own in-flight tasks (self-reap),
// notifies its channels, marks itself SHUTDOWN, and waits (bounded by
// cfg.ShutdownTimeout) for the heartbeat goroutine to exit.
func (w *Worker) Shutdown(ctx context.Context) {
	w.stateMu.Lock()
	if w.state == StateShutdown {
		w.stateMu.Unlock()
		return
	}
	w.state = StateShutdown
	w.stateMu.Unlock()

	select {
	case <-w.stopCh:
	default:
		close(w.stopCh)
	}

	if w.worker != nil {
		workerLog := logger.WithWorker(w.worker.ID.String())
		if err := w.selfReap(ctx); err != nil {
			workerLog.Error().Err(err).Msg("self-reap on shutdown failed")
		}
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(w.cfg.ShutdownTimeout):
		log.Warn().Msg("heartbeat goroutine did not exit before shutdown timeout")
	}
}

func (w *Worker) selfReap(ctx context.Context) error {
	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	count, channels, err := w.workers.WithExecutor(tx).RescheduleDeadTasks(ctx, []uuid.UUID{w.worker.ID})
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE bq_workers SET state = $2 WHERE id = $1`, w.worker.ID, models.WorkerShutdown); err != nil {
		return err
	}

	set := db.NewNotifySet()
	if err := set.NotifyAll(ctx, tx, channels); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	metrics.TasksRescheduled.Add(float64(count))
	return nil
}

// newListenConn opens a fresh dedicated connection for LISTEN/NOTIFY on
// every call and subscribes it to cfg.Channels, since dispatch.Listen
// requires one separate from the pool. The caller closes it.
func (w *Worker) newListenConn(ctx context.Context) (*pgx.Conn, error) {
	cfg := w.pool.Config().ConnConfig.Copy()
	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := dispatch.Listen(ctx, conn, w.cfg.Channels); err != nil {
		conn.Close(ctx)
		return nil, err
	}
	return conn, nil
}
