package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// NotifySet dedups outgoing NOTIFY calls within a single logical unit of
// work (typically one transaction): spec.md requires that inserting or
// updating several tasks into PENDING for the same channel produce at most
// one notification per channel. Construct a fresh NotifySet per
// transaction; it carries no state across commits.
type NotifySet struct {
	notified map[string]struct{}
}

// NewNotifySet returns an empty dedup set.
func NewNotifySet() *NotifySet {
	return &NotifySet{notified: make(map[string]struct{})}
}

// Notify issues pg_notify for channel unless it was already notified by this
// set. Returns true if a notification was actually sent.
func (n *NotifySet) Notify(ctx context.Context, tx pgx.Tx, channel string) (bool, error) {
	if _, ok := n.notified[channel]; ok {
		return false, nil
	}
	if _, err := tx.Exec(ctx, "SELECT pg_notify($1, '')", channel); err != nil {
		return false, fmt.Errorf("db: notify %s: %w", channel, err)
	}
	n.notified[channel] = struct{}{}
	return true, nil
}

// NotifyAll notifies each distinct channel in channels at most once.
func (n *NotifySet) NotifyAll(ctx context.Context, tx pgx.Tx, channels []string) error {
	for _, ch := range channels {
		if _, err := n.Notify(ctx, tx, ch); err != nil {
			return err
		}
	}
	return nil
}
