package runlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists run records to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS runs (
        id TEXT PRIMARY KEY,
        started_at INTEGER,
        mode TEXT,
        model TEXT,
        mae REAL,
        record TEXT
    );`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Append writes the record to the database.
func (s *SQLiteStore) Append(ctx context.Context, rec Record) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	var mae sql.NullFloat64
	if rec.MAE != nil {
		mae = sql.NullFloat64{Float64: *rec.MAE, Valid: true}
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, mode, model, mae, record) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.StartedAt.UnixNano(), rec.Mode, rec.Model, mae, string(b))
	return err
}

// Query returns records matching q, newest first.
func (s *SQLiteStore) Query(ctx context.Context, q Query) ([]Record, error) {
	var args []any
	query := `SELECT record FROM runs WHERE 1=1`
	if q.Mode != "" {
		query += ` AND mode = ?`
		args = append(args, q.Mode)
	}
	if !q.Since.IsZero() {
		query += ` AND started_at >= ?`
		args = append(args, q.Since.UnixNano())
	}
	query += ` ORDER BY started_at DESC`
	if q.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, q.Limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []Record
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var r Record
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, fmt.Errorf("unmarshal record: %w", err)
		}
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
