package query

import (
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/PeerDB-io/mongoquery/shared/document"
	"github.com/PeerDB-io/mongoquery/shared/exceptions"
)

// Recognised directive names. Any other key in the input is ignored.
const (
	DirectiveSelect     = "$select"
	DirectiveProjection = "$projection"
	DirectiveOrderBy    = "$orderby"
	DirectiveSort       = "$sort"
	DirectiveTop        = "$top"
	DirectiveLimit      = "$limit"
	DirectiveSkip       = "$skip"
	DirectiveRawQuery   = "$rawQuery"
	DirectiveFilter     = "$filter"
)

const DefaultLimit int64 = 50

// directive returns the value stored under key when it is set to something
// other than nil or the empty string.
func directive(raw map[string]any, key string) (any, bool) {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil, false
	}
	if s, isString := v.(string); isString && s == "" {
		return nil, false
	}
	return v, true
}

// ParseSelect reads the comma separated $select list. A leading '-' excludes
// a field; inclusions and exclusions cannot be mixed.
func ParseSelect(raw map[string]any) (map[string]bool, error) {
	v, ok := directive(raw, DirectiveSelect)
	if !ok {
		return nil, nil
	}
	list, err := cast.ToStringE(v)
	if err != nil {
		return nil, exceptions.NewQueryErrorf(exceptions.ErrInvalidSelect, "$select must be a comma separated list, got %T", v)
	}

	selected := map[string]bool{}
	var hasInclusion, hasExclusion bool
	for _, field := range strings.Split(list, ",") {
		field = strings.TrimSpace(field)
		if after, excluded := strings.CutPrefix(field, "-"); excluded {
			if after == "" {
				continue
			}
			selected[after] = false
			hasExclusion = true
		} else if field != "" {
			selected[field] = true
			hasInclusion = true
		}
	}

	if hasInclusion && hasExclusion {
		return nil, exceptions.NewQueryError(exceptions.ErrInvalidSelect, "select cannot have inclusion and exclusion together")
	}
	if len(selected) == 0 {
		return nil, nil
	}
	return selected, nil
}

// ParseProjection reads $projection, given either as a document or as a
// JSON string.
func ParseProjection(raw map[string]any) (bson.M, error) {
	v, ok := directive(raw, DirectiveProjection)
	if !ok {
		return nil, nil
	}

	switch p := v.(type) {
	case string:
		doc, err := document.DecodeDocument(p)
		if err != nil {
			return nil, exceptions.NewQueryError(exceptions.ErrInvalidProjection, "invalid projection json").WithCause(err)
		}
		return doc, nil
	case bson.D:
		doc := make(bson.M, len(p))
		for _, e := range p {
			doc[e.Key] = document.Normalize(e.Value)
		}
		return doc, nil
	default:
		if doc, isDoc := document.Normalize(v).(bson.M); isDoc {
			return doc, nil
		}
		return nil, exceptions.NewQueryErrorf(exceptions.ErrInvalidProjection, "projection must be a document or JSON string, got %T", v)
	}
}

// ParseSort reads $orderby, falling back to $sort. Each comma separated
// field may carry a " desc"/" asc" suffix or a '-'/'+' prefix; bare fields
// sort ascending. Field order is preserved.
func ParseSort(raw map[string]any) bson.D {
	v, ok := directive(raw, DirectiveOrderBy)
	if !ok {
		v, ok = directive(raw, DirectiveSort)
	}
	if !ok {
		return nil
	}
	list, err := cast.ToStringE(v)
	if err != nil {
		return nil
	}

	var sort bson.D
	for _, field := range strings.Split(list, ",") {
		field = strings.TrimSpace(field)
		direction := int32(1)
		switch {
		case strings.HasSuffix(field, " desc"):
			field, direction = strings.TrimSuffix(field, " desc"), -1
		case strings.HasSuffix(field, " asc"):
			field = strings.TrimSuffix(field, " asc")
		case strings.HasPrefix(field, "-"):
			field, direction = field[1:], -1
		case strings.HasPrefix(field, "+"):
			field = field[1:]
		}
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		sort = document.Upsert(sort, field, direction)
	}
	return sort
}

// ParseLimit reads $top, falling back to $limit. Missing, non-numeric or
// negative values yield DefaultLimit.
func ParseLimit(raw map[string]any) int64 {
	v, ok := directive(raw, DirectiveTop)
	if !ok {
		v, ok = directive(raw, DirectiveLimit)
	}
	if !ok {
		return DefaultLimit
	}
	n, ok := parseCount(v)
	if !ok {
		return DefaultLimit
	}
	return n
}

// ParseSkip reads $skip. Missing, non-numeric or negative values yield 0.
func ParseSkip(raw map[string]any) int64 {
	v, ok := directive(raw, DirectiveSkip)
	if !ok {
		return 0
	}
	n, ok := parseCount(v)
	if !ok {
		return 0
	}
	return n
}

// parseCount parses a non-negative integer; fractional values truncate.
func parseCount(v any) (int64, bool) {
	var n int64
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			n = i
			break
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		n = int64(f)
	case bool:
		return 0, false
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		n = int64(t)
	default:
		i, err := cast.ToInt64E(v)
		if err != nil {
			return 0, false
		}
		n = i
	}
	if n < 0 {
		return 0, false
	}
	return n, true
}
