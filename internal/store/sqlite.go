package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/stately/internal/entity"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - Initial schema (entity_state, journal)
const currentSchemaVersion = 1

// SQLite is the durable Store and Journal implementation.
// Uses SQLite with WAL mode for concurrent read access.
type SQLite struct {
	db *sql.DB
}

var _ RecordedStore = (*SQLite)(nil)

// Open creates or opens a SQLite database at the given path. Use ":memory:"
// for an ephemeral database. Applies required pragmas and the schema.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// This function is idempotent - safe to call multiple times.
func Open(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1) // Single writer to avoid SQLITE_BUSY errors
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("%s: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	var version int
	err := db.QueryRow(`SELECT version FROM schema_meta LIMIT 1`).Scan(&version)
	switch {
	case err == sql.ErrNoRows:
		if _, err := db.Exec(`INSERT INTO schema_meta (version) VALUES (?)`, currentSchemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read schema version: %w", err)
	case version > currentSchemaVersion:
		return fmt.Errorf("database schema version %d is newer than supported %d", version, currentSchemaVersion)
	}
	return nil
}

// Get returns the stored blob for an entity identity.
func (s *SQLite) Get(ctx context.Context, id entity.ID) ([]byte, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `
		SELECT value FROM entity_state WHERE kind = ? AND key = ?
	`, id.Kind, id.Key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", id, err)
	}
	return []byte(value), true, nil
}

// Put upserts the blob for an entity identity.
func (s *SQLite) Put(ctx context.Context, id entity.ID, blob []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entity_state (kind, key, value)
		VALUES (?, ?, ?)
		ON CONFLICT(kind, key) DO UPDATE SET
			value = excluded.value,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
	`, id.Kind, id.Key, string(blob))
	if err != nil {
		return fmt.Errorf("put %s: %w", id, err)
	}
	return nil
}

// Delete removes the blob for an entity identity. Absent keys are a no-op.
func (s *SQLite) Delete(ctx context.Context, id entity.ID) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM entity_state WHERE kind = ? AND key = ?
	`, id.Kind, id.Key)
	if err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	return nil
}

// Append inserts a journal row. Duplicate seq values are silently ignored
// so redelivered commits stay idempotent.
func (s *SQLite) Append(ctx context.Context, rec Record) error {
	_, err := s.db.ExecContext(ctx, insertJournalSQL+` ON CONFLICT(seq) DO NOTHING`,
		journalArgs(rec)...)
	if err != nil {
		return fmt.Errorf("append journal seq %d: %w", rec.Seq, err)
	}
	return nil
}

const insertJournalSQL = `
	INSERT INTO journal (seq, token, kind, key, op, content, outcome, result, error)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

func journalArgs(rec Record) []any {
	return []any{
		rec.Seq,
		rec.Token,
		rec.Entity.Kind,
		rec.Entity.Key,
		rec.Op,
		rec.Content,
		string(rec.Outcome),
		rec.Result,
		rec.Error,
	}
}

// PutRecorded writes the state upsert and its journal row in one
// transaction. Either both land or neither does.
func (s *SQLite) PutRecorded(ctx context.Context, id entity.ID, blob []byte, rec Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("put recorded %s: begin tx: %w", id, err)
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO entity_state (kind, key, value)
		VALUES (?, ?, ?)
		ON CONFLICT(kind, key) DO UPDATE SET
			value = excluded.value,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
	`, id.Kind, id.Key, string(blob)); err != nil {
		return fmt.Errorf("put recorded %s: state: %w", id, err)
	}

	if _, err := tx.ExecContext(ctx, insertJournalSQL+` ON CONFLICT(seq) DO NOTHING`,
		journalArgs(rec)...); err != nil {
		return fmt.Errorf("put recorded %s: journal: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("put recorded %s: commit: %w", id, err)
	}
	return nil
}

// DeleteRecorded writes the state delete and its journal row in one
// transaction.
func (s *SQLite) DeleteRecorded(ctx context.Context, id entity.ID, rec Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete recorded %s: begin tx: %w", id, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM entity_state WHERE kind = ? AND key = ?
	`, id.Kind, id.Key); err != nil {
		return fmt.Errorf("delete recorded %s: state: %w", id, err)
	}

	if _, err := tx.ExecContext(ctx, insertJournalSQL+` ON CONFLICT(seq) DO NOTHING`,
		journalArgs(rec)...); err != nil {
		return fmt.Errorf("delete recorded %s: journal: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete recorded %s: commit: %w", id, err)
	}
	return nil
}

// Records reads journal rows matching the query in seq order.
func (s *SQLite) Records(ctx context.Context, q Query) ([]Record, error) {
	query := `SELECT seq, token, kind, key, op, content, outcome, result, error FROM journal`
	var args []any
	var where []string

	if q.Entity != nil {
		where = append(where, "kind = ? AND key = ?")
		args = append(args, q.Entity.Kind, q.Entity.Key)
	}
	if q.Token != "" {
		where = append(where, "token = ?")
		args = append(args, q.Token)
	}
	for i, cond := range where {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY seq"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		var rec Record
		var outcome string
		if err := rows.Scan(
			&rec.Seq, &rec.Token, &rec.Entity.Kind, &rec.Entity.Key,
			&rec.Op, &rec.Content, &outcome, &rec.Result, &rec.Error,
		); err != nil {
			return nil, fmt.Errorf("scan journal row: %w", err)
		}
		rec.Outcome = entity.Outcome(outcome)
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}
	return recs, nil
}
