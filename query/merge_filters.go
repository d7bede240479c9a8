package query

import (
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/PeerDB-io/mongoquery/merge"
	"github.com/PeerDB-io/mongoquery/shared/document"
	"github.com/PeerDB-io/mongoquery/shared/exceptions"
)

type MergeMode string

const (
	MergeAnd MergeMode = "and"
	MergeOr  MergeMode = "or"
)

// MergeFilters combines two already-built filters. With MergeAnd (the
// default for any mode other than MergeOr) from is appended to an existing
// $and list in to, or both are wrapped in a new $and. MergeOr always wraps
// both in a new $or. A missing side (nil or "") yields the other side; both
// missing yields nil. String inputs are parsed as JSON.
func MergeFilters(from any, to any, mode MergeMode) (bson.M, error) {
	fromDoc, err := filterDocument(from, "from")
	if err != nil {
		return nil, err
	}
	toDoc, err := filterDocument(to, "to")
	if err != nil {
		return nil, err
	}

	switch {
	case fromDoc == nil && toDoc == nil:
		return nil, nil
	case fromDoc == nil:
		return toDoc, nil
	case toDoc == nil:
		return fromDoc, nil
	}

	if mode == MergeOr {
		return bson.M{"$or": bson.A{fromDoc, toDoc}}, nil
	}

	if existing, ok := document.AsArray(toDoc["$and"]); ok {
		conditions := make(bson.A, 0, len(existing)+1)
		conditions = append(conditions, existing...)
		toDoc["$and"] = append(conditions, fromDoc)
		return toDoc, nil
	}
	return bson.M{"$and": bson.A{fromDoc, toDoc}}, nil
}

// filterDocument copies a filter given as a document or JSON text.
func filterDocument(v any, side string) (bson.M, error) {
	switch f := v.(type) {
	case nil:
		return nil, nil
	case string:
		if f == "" {
			return nil, nil
		}
		doc, err := document.DecodeDocument(f)
		if err != nil {
			return nil, exceptions.NewQueryErrorf(exceptions.ErrInvalidQueryInput, "invalid %s query string", side).WithCause(err)
		}
		return doc, nil
	case bson.M:
		if f == nil {
			return nil, nil
		}
		return merge.Clone(f).(bson.M), nil
	case map[string]any:
		if f == nil {
			return nil, nil
		}
		return merge.Clone(f).(bson.M), nil
	default:
		return nil, exceptions.NewQueryErrorf(exceptions.ErrInvalidQueryInput, "%s query must be a document or JSON string, got %T", side, v)
	}
}
