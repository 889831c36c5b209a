// Package store provides the document persistence used by the engine.
//
// The engine treats records as opaque field maps with equality queries; no
// transactions or richer query shapes are assumed. Two implementations are
// provided: a SQLite-backed store for production and an in-memory store for
// tests.
package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Document is a persisted record: flat field map, string keys.
type Document = map[string]any

// Store is the persistence boundary of the core. Save upserts by the given
// key fields; Find/FindOne/Delete take simple field-equality queries.
// FindOne returns (nil, nil) when nothing matches.
type Store interface {
	Save(ctx context.Context, collection string, key Document, doc Document) error
	Find(ctx context.Context, collection string, query Document) ([]Document, error)
	FindOne(ctx context.Context, collection string, query Document) (Document, error)
	Delete(ctx context.Context, collection string, query Document) error
	Close() error
}

// keyString renders key fields into a stable unique-key string.
func keyString(key Document) string {
	fields := make([]string, 0, len(key))
	for k := range key {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	var b strings.Builder
	for i, k := range fields {
		if i > 0 {
			b.WriteByte(';')
		}
		fmt.Fprintf(&b, "%s=%v", k, key[k])
	}
	return b.String()
}

// matches reports whether doc satisfies every field of query. Values are
// compared by their printed form so that numeric representations coming
// back from JSON still match what was queried.
func matches(doc, query Document) bool {
	for field, want := range query {
		got, ok := doc[field]
		if !ok {
			return false
		}
		if fmt.Sprintf("%v", got) != fmt.Sprintf("%v", want) {
			return false
		}
	}
	return true
}
