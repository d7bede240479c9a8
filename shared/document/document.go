// Package document holds the tree plumbing shared by the query packages:
// JSON decoding, normalisation of caller-supplied trees into bson.M/bson.A,
// and uniform access to the three document shapes callers hand us
// (bson.M, map[string]any and the ordered bson.D).
package document

import (
	"encoding/json"
	"slices"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Normalize returns a deep copy of v in which every plain mapping is a bson.M,
// every plain sequence is a bson.A and every json.Number is an int64 when
// integral and a float64 otherwise. bson.D keeps its order and type; opaque
// values are shared.
func Normalize(v any) any {
	switch t := v.(type) {
	case bson.M:
		return normalizeMap(t)
	case map[string]any:
		return normalizeMap(t)
	case bson.A:
		return normalizeSlice(t)
	case []any:
		return normalizeSlice(t)
	case []bson.M:
		out := make(bson.A, len(t))
		for i, e := range t {
			out[i] = normalizeMap(e)
		}
		return out
	case []map[string]any:
		out := make(bson.A, len(t))
		for i, e := range t {
			out[i] = normalizeMap(e)
		}
		return out
	case []bson.D:
		out := make(bson.A, len(t))
		for i, e := range t {
			out[i] = Normalize(e)
		}
		return out
	case bson.D:
		out := make(bson.D, len(t))
		for i, e := range t {
			out[i] = bson.E{Key: e.Key, Value: Normalize(e.Value)}
		}
		return out
	case json.Number:
		return numberValue(t)
	case []byte:
		return slices.Clone(t)
	default:
		return v
	}
}

func normalizeMap[M ~map[string]any](m M) bson.M {
	out := make(bson.M, len(m))
	for k, e := range m {
		out[k] = Normalize(e)
	}
	return out
}

func normalizeSlice[S ~[]any](s S) bson.A {
	out := make(bson.A, len(s))
	for i, e := range s {
		out[i] = Normalize(e)
	}
	return out
}

// IsDocument reports whether v is one of the mapping shapes.
func IsDocument(v any) bool {
	switch v.(type) {
	case bson.M, map[string]any, bson.D:
		return true
	default:
		return false
	}
}

// AsArray returns v as a sequence when it is one of the sequence shapes.
func AsArray(v any) ([]any, bool) {
	switch t := v.(type) {
	case bson.A:
		return t, true
	case []any:
		return t, true
	default:
		return nil, false
	}
}

// Keys returns the keys of a document: sorted for maps, in order for bson.D.
func Keys(v any) ([]string, bool) {
	switch t := v.(type) {
	case bson.M:
		return sortedKeys(t), true
	case map[string]any:
		return sortedKeys(t), true
	case bson.D:
		keys := make([]string, len(t))
		for i, e := range t {
			keys[i] = e.Key
		}
		return keys, true
	default:
		return nil, false
	}
}

func sortedKeys[M ~map[string]any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Len returns the number of keys in a document, or -1 for non-documents.
func Len(v any) int {
	switch t := v.(type) {
	case bson.M:
		return len(t)
	case map[string]any:
		return len(t)
	case bson.D:
		return len(t)
	default:
		return -1
	}
}

// Get looks up key in a document.
func Get(v any, key string) (any, bool) {
	switch t := v.(type) {
	case bson.M:
		val, ok := t[key]
		return val, ok
	case map[string]any:
		val, ok := t[key]
		return val, ok
	case bson.D:
		for _, e := range t {
			if e.Key == key {
				return e.Value, true
			}
		}
	}
	return nil, false
}

// Set replaces the value stored under an existing or new key. Maps are
// updated in place; bson.D is updated in place when the key exists.
func Set(v any, key string, val any) any {
	switch t := v.(type) {
	case bson.M:
		t[key] = val
		return t
	case map[string]any:
		t[key] = val
		return t
	case bson.D:
		return Upsert(t, key, val)
	default:
		return v
	}
}

// Upsert updates or inserts a key-value pair in a bson.D document.
func Upsert(doc bson.D, key string, value any) bson.D {
	for i := range doc {
		if doc[i].Key == key {
			doc[i].Value = value
			return doc
		}
	}
	return append(doc, bson.E{Key: key, Value: value})
}
