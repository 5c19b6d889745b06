// Package healthz exposes the single /healthz endpoint a bq worker process
// serves: 200 with {status, worker_id} while RUNNING, 500 otherwise.
package healthz

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/beanqueue/bq-go/internal/models"
)

// StateFunc reports the worker's current state at request time.
type StateFunc func() models.WorkerState

// IDFunc reports the worker's persisted id at request time. It is a func
// rather than a fixed uuid.UUID because the server is typically mounted
// before the worker row exists (id assigned once Run registers it).
type IDFunc func() uuid.UUID

type response struct {
	Status   string    `json:"status"`
	WorkerID uuid.UUID `json:"worker_id"`
}

// NewServer builds a chi mux serving GET /healthz and 404 elsewhere.
func NewServer(id IDFunc, state StateFunc) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if state() != models.WorkerRunning {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(response{Status: "not_ok", WorkerID: id()})
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(response{Status: "ok", WorkerID: id()})
	})

	return r
}
