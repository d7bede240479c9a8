// Package rawquery reads raw filter documents and replaces typed literal
// wrappers such as {"$int": "1"} or {"$date": "2020-01-06"} with native values.
package rawquery

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/PeerDB-io/mongoquery/shared/document"
	"github.com/PeerDB-io/mongoquery/shared/exceptions"
	"github.com/PeerDB-io/mongoquery/shared/objectid"
)

type coercer func(v any) (any, error)

var coercers map[string]coercer

func init() {
	coercers = map[string]coercer{
		"$date":     coerceDate,
		"$objectId": coerceObjectID,
		"$int":      coerceInt,
		"$float":    coerceFloat,
		"$bool":     coerceBoolValue,
		"$string":   coerceString,
	}
}

// IsTag reports whether key names a typed literal wrapper.
func IsTag(key string) bool {
	_, ok := coercers[key]
	return ok
}

// Parse decodes a raw query given as JSON text or as an already structured
// document and coerces every typed literal in it. The caller's value is not
// modified. An absent raw query (nil or "") yields nil.
func Parse(input any) (bson.M, error) {
	var tree any
	switch v := input.(type) {
	case nil:
		return nil, nil
	case string:
		if v == "" {
			return nil, nil
		}
		decoded, err := document.DecodeJSON(v)
		if err != nil {
			return nil, exceptions.NewQueryError(exceptions.ErrInvalidQueryInput, "invalid raw query string").WithCause(err)
		}
		tree = decoded
	default:
		tree = document.Normalize(v)
	}

	coerced, err := rewrite(tree, "")
	if err != nil {
		return nil, err
	}

	switch doc := coerced.(type) {
	case bson.M:
		return doc, nil
	case bson.D:
		out := make(bson.M, len(doc))
		for _, e := range doc {
			out[e.Key] = e.Value
		}
		return out, nil
	default:
		return nil, exceptions.NewQueryErrorf(exceptions.ErrInvalidQueryInput, "raw query must be a document, got %T", coerced)
	}
}

// Coerce returns a copy of v with every typed literal wrapper replaced by
// its native value.
func Coerce(v any) (any, error) {
	return rewrite(document.Normalize(v), "")
}

// rewrite walks a normalised tree depth-first, replacing wrappers in their
// parents. The tree is modified in place.
func rewrite(v any, path string) (any, error) {
	switch t := v.(type) {
	case bson.M:
		if tag, inner, ok := wrapper(t); ok {
			return coerceTag(tag, inner, path)
		}
		if objectid.IsValid(t) {
			return t, nil
		}
		for key, child := range t {
			replaced, err := rewrite(child, path+"/"+key)
			if err != nil {
				return nil, err
			}
			t[key] = replaced
		}
	case bson.D:
		if len(t) == 1 && IsTag(t[0].Key) && !isContainer(t[0].Value) {
			return coerceTag(t[0].Key, t[0].Value, path)
		}
		if objectid.IsValid(t) {
			return t, nil
		}
		for i := range t {
			replaced, err := rewrite(t[i].Value, path+"/"+t[i].Key)
			if err != nil {
				return nil, err
			}
			t[i].Value = replaced
		}
	case bson.A:
		for i, child := range t {
			replaced, err := rewrite(child, path+"/"+strconv.Itoa(i))
			if err != nil {
				return nil, err
			}
			t[i] = replaced
		}
	}
	return v, nil
}

// wrapper reports whether doc is a single-key typed literal wrapper. A
// wrapper around a nested document or array is walked instead of coerced,
// unless the nested document is identifier-shaped.
func wrapper(doc bson.M) (string, any, bool) {
	if len(doc) != 1 {
		return "", nil, false
	}
	for key, inner := range doc {
		if IsTag(key) && !isContainer(inner) {
			return key, inner, true
		}
	}
	return "", nil, false
}

func isContainer(v any) bool {
	if _, ok := document.AsArray(v); ok {
		return true
	}
	return document.IsDocument(v) && !objectid.IsValid(v)
}

func coerceTag(tag string, inner any, path string) (any, error) {
	value, err := coercers[tag](inner)
	if err != nil {
		kind := exceptions.ErrInvalidLiteral
		if tag == "$objectId" {
			kind = exceptions.ErrInvalidIdentifier
		}
		qe := exceptions.NewQueryErrorf(kind, "cannot coerce %v to %s", inner, tag).WithCause(err)
		if path != "" {
			qe = qe.WithPath(path)
		}
		return nil, qe
	}
	return value, nil
}

func coerceDate(v any) (any, error) {
	switch t := v.(type) {
	case string:
		parsed, err := cast.ToTimeInDefaultLocationE(strings.TrimSpace(t), time.UTC)
		if err != nil {
			return nil, err
		}
		return parsed.UTC(), nil
	case time.Time:
		return t.UTC(), nil
	case bson.DateTime:
		return t.Time().UTC(), nil
	case int64, int32, int, float64, float32:
		ms, err := cast.ToInt64E(t)
		if err != nil {
			return nil, err
		}
		return time.UnixMilli(ms).UTC(), nil
	default:
		return nil, fmt.Errorf("unsupported date value of type %T", v)
	}
}

func coerceObjectID(v any) (any, error) {
	oid, ok := objectid.Parse(v)
	if !ok {
		return nil, fmt.Errorf("%v is not a valid ObjectId", v)
	}
	return oid, nil
}

func coerceInt(v any) (any, error) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%q is not an integer", t)
		}
		return int64(f), nil
	case bool, nil:
		return nil, fmt.Errorf("%v is not an integer", v)
	default:
		return cast.ToInt64E(v)
	}
}

func coerceFloat(v any) (any, error) {
	switch t := v.(type) {
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil || math.IsNaN(f) {
			return nil, fmt.Errorf("%q is not a number", t)
		}
		return f, nil
	case bool, nil:
		return nil, fmt.Errorf("%v is not a number", v)
	default:
		return cast.ToFloat64E(v)
	}
}

func coerceBoolValue(v any) (any, error) {
	b, ok := CoerceBool(v)
	if !ok {
		return v, nil
	}
	return b, nil
}

// CoerceBool applies the boolean table: nil, 0, "0", "false" and "no" are
// false; 1, "1", "true" and "yes" are true (strings case-insensitively).
// Anything else is reported as unrecognised.
func CoerceBool(v any) (bool, bool) {
	switch t := v.(type) {
	case nil:
		return false, true
	case bool:
		return t, true
	}

	s, err := cast.ToStringE(v)
	if err != nil {
		return false, false
	}
	switch strings.ToLower(s) {
	case "0", "false", "no":
		return false, true
	case "1", "true", "yes":
		return true, true
	default:
		return false, false
	}
}

func coerceString(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		return t, nil
	case bson.ObjectID:
		return t.Hex(), nil
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano), nil
	}
	if s, err := cast.ToStringE(v); err == nil {
		return s, nil
	}
	return fmt.Sprint(v), nil
}
