package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/amishk599/jobfeed/internal/model"
)

// SQLiteStore keeps the three state snapshots as rows of a single table and
// replaces them together in one transaction.
type SQLiteStore struct {
	db *sql.DB
}

var _ model.StateStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures the
// snapshots table exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	createTable := `CREATE TABLE IF NOT EXISTS snapshots (
		name       TEXT PRIMARY KEY,
		data       BLOB NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`
	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating snapshots table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Load reads all snapshot rows. A fresh database yields an empty snapshot.
func (s *SQLiteStore) Load(ctx context.Context) (*model.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name, data FROM snapshots")
	if err != nil {
		return nil, fmt.Errorf("loading snapshots: %w", err)
	}
	defer rows.Close()

	parts := make(map[string][]byte, len(partNames))
	for rows.Next() {
		var name string
		var data []byte
		if err := rows.Scan(&name, &data); err != nil {
			return nil, fmt.Errorf("scanning snapshot row: %w", err)
		}
		parts[name] = data
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshot rows: %w", err)
	}
	return decodeParts(parts)
}

// Save replaces all three snapshot rows in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, snap *model.Snapshot) error {
	parts, err := encodeParts(snap)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	const upsert = `INSERT INTO snapshots (name, data, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`
	for _, name := range partNames {
		if _, err := tx.ExecContext(ctx, upsert, name, parts[name]); err != nil {
			return fmt.Errorf("writing %s snapshot: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing snapshot transaction: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
