package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// NewListenConn opens a dedicated, non-pooled connection for LISTEN/NOTIFY.
// Pooled connections are multiplexed across callers and may be returned to
// the pool between statements, so a session-scoped LISTEN would be silently
// dropped; dispatch.Listen and dispatch.Poll expect a connection of this kind.
func NewListenConn(ctx context.Context, databaseURL string) (*pgx.Conn, error) {
	conn, err := pgx.Connect(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("db: connect listen conn: %w", err)
	}
	return conn, nil
}
