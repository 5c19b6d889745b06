package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Savepoint emulates a nested transaction over an already-open pgx.Tx.
// pgx has no begin_nested equivalent, so the registry's processing envelope
// issues these statements directly: a handler that fails rolls back only
// its own work, while the enclosing transaction (worker_id assignment,
// dispatch bookkeeping) survives to record the failure.
type Savepoint struct {
	tx   pgx.Tx
	name string
}

// NewSavepoint issues SAVEPOINT name on tx.
func NewSavepoint(ctx context.Context, tx pgx.Tx, name string) (*Savepoint, error) {
	if _, err := tx.Exec(ctx, fmt.Sprintf("SAVEPOINT %s", pgx.Identifier{name}.Sanitize())); err != nil {
		return nil, fmt.Errorf("db: savepoint %s: %w", name, err)
	}
	return &Savepoint{tx: tx, name: name}, nil
}

// Release issues RELEASE SAVEPOINT, keeping the savepoint's work.
func (s *Savepoint) Release(ctx context.Context) error {
	if _, err := s.tx.Exec(ctx, fmt.Sprintf("RELEASE SAVEPOINT %s", pgx.Identifier{s.name}.Sanitize())); err != nil {
		return fmt.Errorf("db: release savepoint %s: %w", s.name, err)
	}
	return nil
}

// Rollback issues ROLLBACK TO SAVEPOINT, discarding the savepoint's work
// while leaving the enclosing transaction open.
func (s *Savepoint) Rollback(ctx context.Context) error {
	if _, err := s.tx.Exec(ctx, fmt.Sprintf("ROLLBACK TO SAVEPOINT %s", pgx.Identifier{s.name}.Sanitize())); err != nil {
		return fmt.Errorf("db: rollback to savepoint %s: %w", s.name, err)
	}
	return nil
}
