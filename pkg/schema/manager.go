// Package schema applies each component's DDL idempotently on startup.
// Chunk-based rather than versioned-file-based: there is no
// schema_migrations ledger, each chunk is independently idempotent and
// an optional existence probe lets the manager tell "created" from
// "skipped" for the summary line.
package schema

import (
	"context"
	"database/sql"
	"log"

	"github.com/chainswarm/indexer/pkg/retry"
)

// Chunk is one independently-idempotent piece of DDL.
type Chunk struct {
	// Name identifies the chunk in error messages.
	Name string
	// SQL is the DDL statement(s) to execute.
	SQL string
	// ExistsQuery, if set, is a query returning one row with one
	// non-null column when the object already exists (e.g.
	// "SELECT to_regclass('assets')"). When empty, the chunk's SQL is
	// executed on every Apply and counted as created.
	ExistsQuery string
}

// Manager applies chunks in order against one database.
type Manager struct {
	db     *sql.DB
	logger *log.Logger
}

// NewManager builds a Manager.
func NewManager(db *sql.DB, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.New(log.Writer(), "[Schema] ", log.LstdFlags)
	}
	return &Manager{db: db, logger: logger}
}

// Apply executes chunks in order. An error in any chunk halts
// immediately; only the final "n created, k skipped, e errors" summary
// is logged on success.
func (m *Manager) Apply(ctx context.Context, chunks []Chunk) error {
	created, skipped := 0, 0
	for _, chunk := range chunks {
		exists, err := m.alreadyExists(ctx, chunk)
		if err != nil {
			return retry.New(retry.SchemaError, "schema.Apply:"+chunk.Name, err)
		}
		if exists {
			skipped++
			continue
		}
		if _, err := m.db.ExecContext(ctx, chunk.SQL); err != nil {
			return retry.New(retry.SchemaError, "schema.Apply:"+chunk.Name, err)
		}
		created++
	}
	m.logger.Printf("%d created, %d skipped, %d errors", created, skipped, 0)
	return nil
}

func (m *Manager) alreadyExists(ctx context.Context, chunk Chunk) (bool, error) {
	if chunk.ExistsQuery == "" {
		return false, nil
	}
	var name sql.NullString
	if err := m.db.QueryRowContext(ctx, chunk.ExistsQuery).Scan(&name); err != nil {
		return false, err
	}
	return name.Valid, nil
}
