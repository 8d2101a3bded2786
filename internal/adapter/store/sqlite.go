package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"pharmadoc/internal/domain"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS segments (
	seq         INTEGER PRIMARY KEY,
	source      TEXT NOT NULL,
	page        INTEGER,
	byte_offset INTEGER NOT NULL,
	text        TEXT NOT NULL,
	embedding   BLOB NOT NULL
);`

// SQLiteStore keeps one index snapshot in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	// single connection so that :memory: databases are shared
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, meta domain.IndexMeta, entries []domain.IndexEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM segments`); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO segments(seq, source, page, byte_offset, text, embedding) VALUES(?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, e := range entries {
		var page sql.NullInt64
		if e.Segment.Page != nil {
			page = sql.NullInt64{Int64: int64(*e.Segment.Page), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, i, e.Segment.Source, page, e.Segment.Offset, e.Segment.Text, encodeVector(e.Vector)); err != nil {
			return fmt.Errorf("insert segment %d: %w", i, err)
		}
	}

	schema, err := json.Marshal(SchemaInfo{Version: CurrentSchemaVersion, ConfigHash: meta.ConfigHash})
	if err != nil {
		return err
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	for key, value := range map[string][]byte{"schema": schema, "index": data} {
		if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO meta(key, value) VALUES(?, ?)`, key, string(value)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) Load(ctx context.Context) (domain.IndexMeta, []domain.IndexEntry, error) {
	var meta domain.IndexMeta
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'index'`).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return meta, nil, domain.ErrIndexNotBuilt
	}
	if err != nil {
		return meta, nil, err
	}
	if err := json.Unmarshal([]byte(value), &meta); err != nil {
		return meta, nil, fmt.Errorf("decode index meta: %w", err)
	}

	var info SchemaInfo
	if err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'schema'`).Scan(&value); err != nil {
		return meta, nil, fmt.Errorf("read schema info: %w", err)
	}
	if err := json.Unmarshal([]byte(value), &info); err != nil {
		return meta, nil, fmt.Errorf("decode schema info: %w", err)
	}
	if err := checkSchema(info); err != nil {
		return meta, nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT source, page, byte_offset, text, embedding FROM segments ORDER BY seq`)
	if err != nil {
		return meta, nil, err
	}
	defer rows.Close()

	var entries []domain.IndexEntry
	for rows.Next() {
		var seg domain.Segment
		var page sql.NullInt64
		var blob []byte
		if err := rows.Scan(&seg.Source, &page, &seg.Offset, &seg.Text, &blob); err != nil {
			return meta, nil, err
		}
		if page.Valid {
			seg.Page = domain.IntPtr(int(page.Int64))
		}
		vec, err := decodeVector(blob)
		if err != nil {
			return meta, nil, err
		}
		entries = append(entries, domain.IndexEntry{Vector: vec, Segment: seg})
	}
	if err := rows.Err(); err != nil {
		return meta, nil, err
	}
	return meta, entries, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
