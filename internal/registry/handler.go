package registry

import (
	"github.com/beanqueue/bq-go/internal/retrypolicy"
)

// Func is a registered handler's body. It receives the execution Context and
// returns a JSON-marshalable result (used as the task's result when
// AutoComplete is set) or an error.
type Func func(*Context) (any, error)

// Handler is a descriptor bound to one (channel, module, name) address.
type Handler struct {
	Channel  string
	Module   string
	Name     string
	Func     Func
	// AutoComplete marks the task DONE and records its return value as
	// result on success. Defaults to true.
	AutoComplete bool
	// RetryPolicy, if set, is consulted on handler failure to decide
	// whether to reschedule the task instead of failing it terminally.
	RetryPolicy retrypolicy.Policy
	// RetryExceptions, if set, gates RetryPolicy: only errors matching this
	// predicate trigger a retry; others fail the task immediately.
	RetryExceptions func(error) bool
}

// NewHandler returns a Handler with AutoComplete defaulted to true, matching
// the registered-handler default; callers that need auto-complete off set
// the field explicitly after construction.
func NewHandler(channel, module, name string, fn Func) *Handler {
	return &Handler{
		Channel:      channel,
		Module:       module,
		Name:         name,
		Func:         fn,
		AutoComplete: true,
	}
}
