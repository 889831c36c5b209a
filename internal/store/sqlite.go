package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	collection TEXT NOT NULL,
	record_key TEXT NOT NULL,
	doc        TEXT NOT NULL,
	PRIMARY KEY (collection, record_key)
);
`

// SQLiteStore persists documents as JSON rows in a single SQLite table,
// one row per (collection, unique key). Queries filter with json_extract
// on the document body.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the store at path. Use
// ":memory:" for an ephemeral store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store at %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize store schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Save upserts doc under the record identified by the key fields.
func (s *SQLiteStore) Save(ctx context.Context, collection string, key Document, doc Document) error {
	if len(key) == 0 {
		return fmt.Errorf("save to %s requires at least one key field", collection)
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document for %s: %w", collection, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO records (collection, record_key, doc) VALUES (?, ?, ?)
		 ON CONFLICT (collection, record_key) DO UPDATE SET doc = excluded.doc`,
		collection, keyString(key), string(body))
	if err != nil {
		return fmt.Errorf("failed to save document to %s: %w", collection, err)
	}
	return nil
}

// Find returns every document in collection matching the query fields.
func (s *SQLiteStore) Find(ctx context.Context, collection string, query Document) ([]Document, error) {
	sqlQuery, args := buildSelect(collection, query)

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("failed to scan document from %s: %w", collection, err)
		}
		var doc Document
		if err := json.Unmarshal([]byte(body), &doc); err != nil {
			return nil, fmt.Errorf("corrupt document in %s: %w", collection, err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// FindOne returns the first matching document, or (nil, nil) when absent.
func (s *SQLiteStore) FindOne(ctx context.Context, collection string, query Document) (Document, error) {
	docs, err := s.Find(ctx, collection, query)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return docs[0], nil
}

// Delete removes every document in collection matching the query fields.
func (s *SQLiteStore) Delete(ctx context.Context, collection string, query Document) error {
	sqlQuery, args := buildDelete(collection, query)
	if _, err := s.db.ExecContext(ctx, sqlQuery, args...); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", collection, err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func buildSelect(collection string, query Document) (string, []any) {
	where, args := buildWhere(collection, query)
	return "SELECT doc FROM records WHERE " + where, args
}

func buildDelete(collection string, query Document) (string, []any) {
	where, args := buildWhere(collection, query)
	return "DELETE FROM records WHERE " + where, args
}

func buildWhere(collection string, query Document) (string, []any) {
	clauses := []string{"collection = ?"}
	args := []any{collection}
	for field, value := range query {
		clauses = append(clauses, "json_extract(doc, '$."+field+"') = ?")
		args = append(args, value)
	}
	return joinAnd(clauses), args
}

func joinAnd(clauses []string) string {
	out := clauses[0]
	for _, c := range clauses[1:] {
		out += " AND " + c
	}
	return out
}
