// Package docstore defines the port for the remote document database. The
// tracker only assumes flat collections of ID-keyed documents with equality,
// range, array-contains and in filters, plus merge-on-write upserts; backends
// live in subpackages.
package docstore

import (
	"context"
	"errors"
	"strings"
)

var ErrNotFound = errors.New("document not found")

// PrefixEnd is the highest code point the store orders after every valid
// string value. Prefix scans query [prefix, prefix+PrefixEnd].
const PrefixEnd = "\uf8ff"

// Document is a single record: a generated ID plus a flat field map.
type Document struct {
	ID     string
	Fields map[string]any
}

type Op string

const (
	OpEqual          Op = "=="
	OpGreaterOrEqual Op = ">="
	OpLessOrEqual    Op = "<="
	OpArrayContains  Op = "array-contains"
	OpIn             Op = "in"
)

// Filter is a single query predicate; filters on one query are ANDed.
type Filter struct {
	Field string
	Op    Op
	Value any
}

func Where(field string, op Op, value any) Filter {
	return Filter{Field: field, Op: op, Value: value}
}

type Store interface {
	// Get returns one document, or ErrNotFound.
	Get(ctx context.Context, collection, id string) (Document, error)

	// Query returns all documents matching every filter, in store order.
	Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error)

	// Create writes a new document under a generated ID and returns the ID.
	Create(ctx context.Context, collection string, fields map[string]any) (string, error)

	// Set overwrites the document wholesale, creating it if absent.
	Set(ctx context.Context, collection, id string, fields map[string]any) error

	// Merge upserts the given fields, preserving fields not present in the
	// payload (merge-write semantics).
	Merge(ctx context.Context, collection, id string, fields map[string]any) error

	// Delete removes the document. Deleting an absent document is not an error.
	Delete(ctx context.Context, collection, id string) error
}

// Matches evaluates filters against a field map. Shared by the memory and
// sqlite backends; the firestore backend pushes filters down instead.
func Matches(fields map[string]any, filters []Filter) bool {
	for _, f := range filters {
		if !matchOne(fields[f.Field], f) {
			return false
		}
	}
	return true
}

func matchOne(value any, f Filter) bool {
	switch f.Op {
	case OpEqual:
		return equalValues(value, f.Value)
	case OpGreaterOrEqual:
		cmp, ok := compareValues(value, f.Value)
		return ok && cmp >= 0
	case OpLessOrEqual:
		cmp, ok := compareValues(value, f.Value)
		return ok && cmp <= 0
	case OpArrayContains:
		for _, elem := range anySlice(value) {
			if equalValues(elem, f.Value) {
				return true
			}
		}
		return false
	case OpIn:
		for _, candidate := range anySlice(f.Value) {
			if equalValues(value, candidate) {
				return true
			}
		}
		return false
	}
	return false
}

func equalValues(a, b any) bool {
	if af, aok := numeric(a); aok {
		bf, bok := numeric(b)
		return bok && af == bf
	}
	return a == b
}

// compareValues orders strings lexically and numbers numerically. Mixed or
// unordered types report no match.
func compareValues(a, b any) (int, bool) {
	if as, ok := a.(string); ok {
		bs, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(as, bs), true
	}
	af, aok := numeric(a)
	bf, bok := numeric(b)
	if !aok || !bok {
		return 0, false
	}
	switch {
	case af < bf:
		return -1, true
	case af > bf:
		return 1, true
	}
	return 0, true
}

func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func anySlice(v any) []any {
	switch s := v.(type) {
	case []any:
		return s
	case []string:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out
	}
	return nil
}
