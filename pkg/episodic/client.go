// Package episodic implements the append-only decision/tool-call log:
// indexed search over decisions and tool calls, fsync'd writes, no update
// or delete surface. Backed by modernc.org/sqlite rather
// than tarsy's Postgres+ent stack — see DESIGN.md for why — but kept
// to tarsy's own "embed migrations, apply on startup, wrap a thin
// Client type around the pool" shape (pkg/database/client.go).
package episodic

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// Client is the Episodic Log's storage handle. One writer connection (sqlite
// allows exactly one writer at a time) plus a separate, larger read pool so
// search_decisions/search_tool_calls never block behind an in-flight write:
// reads may proceed concurrently with writes.
type Client struct {
	writeDB *sql.DB
	readDB  *sql.DB
	writeMu sync.Mutex
}

// Open opens (creating if necessary) the episodic log database at path and
// applies any pending migrations.
func Open(ctx context.Context, path string) (*Client, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=synchronous(FULL)&_pragma=foreign_keys(1)"

	writeDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening episodic write handle: %w", err)
	}
	writeDB.SetMaxOpenConns(1)

	readDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		_ = writeDB.Close()
		return nil, fmt.Errorf("opening episodic read handle: %w", err)
	}
	readDB.SetMaxOpenConns(4)

	if err := writeDB.PingContext(ctx); err != nil {
		_ = writeDB.Close()
		_ = readDB.Close()
		return nil, fmt.Errorf("pinging episodic log: %w", err)
	}

	if err := applyMigrations(ctx, writeDB); err != nil {
		_ = writeDB.Close()
		_ = readDB.Close()
		return nil, err
	}

	return &Client{writeDB: writeDB, readDB: readDB}, nil
}

// Close releases both connections.
func (c *Client) Close() error {
	writeErr := c.writeDB.Close()
	readErr := c.readDB.Close()
	if writeErr != nil {
		return writeErr
	}
	return readErr
}

// Health reports whether the log is reachable.
func (c *Client) Health(ctx context.Context) error {
	return c.readDB.PingContext(ctx)
}
