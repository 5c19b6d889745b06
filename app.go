package bq

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/beanqueue/bq-go/internal/dispatch"
	"github.com/beanqueue/bq-go/internal/registry"
	"github.com/beanqueue/bq-go/internal/workersvc"
)

// App bundles a connection pool with the registry processors attach to. It
// is the long-lived object a process builds once at startup.
type App struct {
	Pool     *pgxpool.Pool
	Registry *registry.Registry
	Dispatch *dispatch.Service
	Workers  *workersvc.Service
}

// New constructs an App backed by pool, with an empty registry.
func New(pool *pgxpool.Pool) *App {
	return &App{
		Pool:     pool,
		Registry: registry.New(),
		Dispatch: dispatch.New(pool),
		Workers:  workersvc.New(pool),
	}
}
