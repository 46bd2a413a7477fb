// Package database provides the shared Postgres connection used by every
// columnar projection store (assets, transfers, balance series, money flow
// node/edge tables). DDL lives in pkg/schema. The block stream and
// checkpoint stores are not SQL-backed: they sit on pkg/kvdb, not
// Postgres.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// Client wraps a pooled *sql.DB connection.
type Client struct {
	db     *sql.DB
	logger *log.Logger
}

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithLogger overrides the client's logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// Config holds connection-pool tuning for a Client.
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

// New opens a pooled connection to Postgres and verifies it with a ping.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database: DSN cannot be empty")
	}

	c := &Client{
		logger: log.New(log.Writer(), "[Database] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(c)
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("database: open: %w", err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 25
	}
	maxIdle := cfg.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 5
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	c.db = db

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database: ping: %w", err)
	}

	c.logger.Printf("connected (max_open=%d, max_idle=%d)", maxOpen, maxIdle)
	return c, nil
}

// DB returns the underlying *sql.DB for repositories to build queries against.
func (c *Client) DB() *sql.DB { return c.db }

// Close releases the connection pool.
func (c *Client) Close() error {
	if c.db == nil {
		return nil
	}
	c.logger.Println("closing connection")
	return c.db.Close()
}

// Ping verifies the connection is alive.
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// HealthStatus reports pool health.
type HealthStatus struct {
	Healthy         bool      `json:"healthy"`
	Error           string    `json:"error,omitempty"`
	OpenConnections int       `json:"open_connections"`
	InUse           int       `json:"in_use"`
	Idle            int       `json:"idle"`
	CheckedAt       time.Time `json:"checked_at"`
}

// Health snapshots the connection pool's current stats.
func (c *Client) Health(ctx context.Context) HealthStatus {
	status := HealthStatus{CheckedAt: time.Now()}
	if err := c.db.PingContext(ctx); err != nil {
		status.Error = err.Error()
		return status
	}
	stats := c.db.Stats()
	status.Healthy = true
	status.OpenConnections = stats.OpenConnections
	status.InUse = stats.InUse
	status.Idle = stats.Idle
	return status
}

// Tx wraps a *sql.Tx.
type Tx struct {
	tx *sql.Tx
}

// BeginTx starts a new transaction.
func (c *Client) BeginTx(ctx context.Context) (*Tx, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("database: begin tx: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// Commit commits the transaction.
func (t *Tx) Commit() error { return t.tx.Commit() }

// Rollback rolls back the transaction.
func (t *Tx) Rollback() error { return t.tx.Rollback() }

// Tx returns the underlying *sql.Tx.
func (t *Tx) Tx() *sql.Tx { return t.tx }
