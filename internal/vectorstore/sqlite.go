package vectorstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements VectorStore on a single on-disk SQLite file.
// Vectors are stored as JSON arrays; queries scan the collection and score
// candidates in Go (the corpus is a handful of CVs, not millions of chunks).
type SQLiteStore struct {
	db         *sqlx.DB
	collection string
}

func OpenSQLite(path, collection string) (*SQLiteStore, error) {
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	s := &SQLiteStore{db: db, collection: collection}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS collections (
			name TEXT PRIMARY KEY,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS documents (
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			text TEXT NOT NULL,
			dim INTEGER NOT NULL,
			vector TEXT NOT NULL,
			metadata TEXT NOT NULL,
			created_at TEXT NOT NULL,
			PRIMARY KEY (collection, id)
		)`,
	}
	for _, q := range stmts {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Upsert(ctx context.Context, items []UpsertItem) error {
	if len(items) == 0 {
		return nil
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO collections(name, created_at) VALUES(?, ?)`,
		s.collection, now); err != nil {
		return fmt.Errorf("register collection: %w", err)
	}
	for _, it := range items {
		vecJSON, err := json.Marshal(it.Vector)
		if err != nil {
			return fmt.Errorf("encode vector for %s: %w", it.ID, err)
		}
		metaJSON, err := json.Marshal(it.Metadata)
		if err != nil {
			return fmt.Errorf("encode metadata for %s: %w", it.ID, err)
		}
		// delete-then-insert for idempotency
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM documents WHERE collection=? AND id=?`, s.collection, it.ID); err != nil {
			return fmt.Errorf("replace %s: %w", it.ID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO documents(collection, id, text, dim, vector, metadata, created_at) VALUES(?,?,?,?,?,?,?)`,
			s.collection, it.ID, it.Text, len(it.Vector), string(vecJSON), string(metaJSON), now); err != nil {
			return fmt.Errorf("insert %s: %w", it.ID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Query(ctx context.Context, vector []float32, k int) ([]Match, error) {
	if k <= 0 || len(vector) == 0 {
		return nil, nil
	}
	var name string
	err := s.db.GetContext(ctx, &name, `SELECT name FROM collections WHERE name=?`, s.collection)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, s.collection)
	}
	if err != nil {
		return nil, fmt.Errorf("check collection: %w", err)
	}

	// Filter by dimension to avoid mixing models with different dims.
	rows, err := s.db.QueryxContext(ctx,
		`SELECT id, text, vector, metadata FROM documents WHERE collection=? AND dim=?`,
		s.collection, len(vector))
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var id, text, vecStr, metaStr string
		if err := rows.Scan(&id, &text, &vecStr, &metaStr); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		var vec []float32
		if err := json.Unmarshal([]byte(vecStr), &vec); err != nil || len(vec) != len(vector) {
			continue
		}
		var meta map[string]string
		if err := json.Unmarshal([]byte(metaStr), &meta); err != nil {
			meta = map[string]string{}
		}
		matches = append(matches, Match{
			Document: Document{ID: id, Text: text, Metadata: meta},
			Distance: squaredDistance(vector, vec),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return selectNearest(matches, k), nil
}

// Count reports how many documents the collection holds.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM documents WHERE collection=?`, s.collection); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
