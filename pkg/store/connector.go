// Package store is the persistence boundary: a shared connection pool, a
// Connector that scopes statements to an optional (possibly nested) logical
// transaction, and the domain queries built on top of them.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite3"
)

// Store owns the process-wide connection pool and the transaction gate.
// Open it once at startup and Close it at shutdown.
type Store struct {
	db     *sql.DB
	driver string

	// txGate admits one logical transaction at a time. It is taken when a
	// top-level transaction begins and released only when that transaction
	// fully commits or rolls back, so a second caller never observes a
	// half-applied state. Leaking it stalls every later operation.
	txGate chan struct{}
}

// Open connects the pool for the given driver ("pgx" or "sqlite3").
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	switch driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{
		db:     db,
		driver: driver,
		txGate: make(chan struct{}, 1),
	}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// forUpdate returns the row-lock clause where the backend supports it.
func (s *Store) forUpdate() string {
	if s.driver == DriverPostgres {
		return " FOR UPDATE"
	}
	return ""
}

// NewConnector returns a fresh Connector with no open transaction.
// Statements run against pool connections until StartTransaction is called.
func (s *Store) NewConnector() *Connector {
	return &Connector{store: s}
}

// connector returns the caller-supplied Connector, or a single-use one
// scoped to just the current operation.
func (s *Store) connector(c *Connector) *Connector {
	if c != nil {
		return c
	}
	return s.NewConnector()
}

// Connector runs statements either standalone against the pool or inside
// one logical transaction. Calling StartTransaction while a transaction is
// already open pushes a savepoint instead of opening a second physical
// transaction, so domain operations can be composed freely: each one may
// bracket its own StartTransaction/Commit without caring whether the caller
// already opened one.
type Connector struct {
	store *Store

	mu         sync.Mutex
	conn       *sql.Conn
	tx         *sql.Tx
	savepoints []string
	nextSP     int
}

// StartTransaction begins the top-level transaction, taking the store's
// exclusivity gate and a dedicated pool connection, or pushes a named
// savepoint when a transaction is already open.
func (c *Connector) StartTransaction(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tx != nil {
		name := "sp_" + strconv.Itoa(c.nextSP)
		c.nextSP++
		if _, err := c.tx.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
			return fmt.Errorf("failed to create savepoint %s: %w", name, err)
		}
		c.savepoints = append(c.savepoints, name)
		return nil
	}

	c.store.txGate <- struct{}{}
	conn, err := c.store.db.Conn(ctx)
	if err != nil {
		<-c.store.txGate
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		conn.Close()
		<-c.store.txGate
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	c.conn = conn
	c.tx = tx
	return nil
}

// Commit releases the innermost savepoint, or commits the top-level
// transaction and returns the connection and the gate.
func (c *Connector) Commit(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tx == nil {
		return fmt.Errorf("commit without open transaction")
	}
	if n := len(c.savepoints); n > 0 {
		name := c.savepoints[n-1]
		c.savepoints = c.savepoints[:n-1]
		if _, err := c.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+name); err != nil {
			return fmt.Errorf("failed to release savepoint %s: %w", name, err)
		}
		return nil
	}

	err := c.tx.Commit()
	c.finish()
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Rollback rolls back to the innermost savepoint, or rolls back the
// top-level transaction and returns the connection and the gate.
func (c *Connector) Rollback(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tx == nil {
		return fmt.Errorf("rollback without open transaction")
	}
	if n := len(c.savepoints); n > 0 {
		name := c.savepoints[n-1]
		c.savepoints = c.savepoints[:n-1]
		if _, err := c.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name); err != nil {
			return fmt.Errorf("failed to roll back to savepoint %s: %w", name, err)
		}
		if _, err := c.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+name); err != nil {
			return fmt.Errorf("failed to release savepoint %s: %w", name, err)
		}
		return nil
	}

	err := c.tx.Rollback()
	c.finish()
	if err != nil {
		return fmt.Errorf("failed to roll back transaction: %w", err)
	}
	return nil
}

// finish releases the held connection and the gate. Caller holds c.mu.
func (c *Connector) finish() {
	c.conn.Close()
	c.conn = nil
	c.tx = nil
	c.savepoints = nil
	<-c.store.txGate
}

// InTransaction reports whether a logical transaction is open.
func (c *Connector) InTransaction() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tx != nil
}

// Exec runs a statement on the held transaction, or a one-shot pool
// connection when none is open.
func (c *Connector) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tx != nil {
		return c.tx.ExecContext(ctx, query, args...)
	}
	return c.store.db.ExecContext(ctx, query, args...)
}

// Query runs a row query on the held transaction, or a one-shot pool
// connection when none is open.
func (c *Connector) Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tx != nil {
		return c.tx.QueryContext(ctx, query, args...)
	}
	return c.store.db.QueryContext(ctx, query, args...)
}

// QueryRow runs a single-row query on the held transaction, or a one-shot
// pool connection when none is open.
func (c *Connector) QueryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tx != nil {
		return c.tx.QueryRowContext(ctx, query, args...)
	}
	return c.store.db.QueryRowContext(ctx, query, args...)
}
