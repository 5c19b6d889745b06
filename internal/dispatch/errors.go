// Package dispatch implements atomic task claiming and the LISTEN/NOTIFY
// wake-up bridge: the only component allowed to move a task from PENDING to
// PROCESSING.
package dispatch

import "errors"

// ErrTimeout is returned by Poll when no notification arrives within the
// requested window. It is non-fatal: the worker loop treats it as "nothing
// to do yet" and runs another drain pass before polling again.
var ErrTimeout = errors.New("dispatch: poll timed out")
