// Package query turns REST-style query directives ($filter, $select, $sort,
// $top, ...) into a MongoDB filter and the accompanying find options.
package query

import (
	"maps"
	"net/url"
	"slices"
	"strings"

	"github.com/spf13/cast"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/PeerDB-io/mongoquery/merge"
	"github.com/PeerDB-io/mongoquery/odata"
	"github.com/PeerDB-io/mongoquery/rawquery"
	"github.com/PeerDB-io/mongoquery/shared/document"
	"github.com/PeerDB-io/mongoquery/shared/exceptions"
)

// ParsedQuery is the immutable result of parsing a set of directives.
// Accessors return copies.
type ParsedQuery struct {
	original   map[string]any
	selected   map[string]bool
	projection bson.M
	sort       bson.D
	filter     bson.M
	rawQuery   bson.M
	query      bson.M
	limit      int64
	skip       int64
}

// New parses input, which may be an encoded query string, a directive map
// or url.Values. The final query merges the $filter result, then the
// $rawQuery result, then defaults.
func New(input any, defaults bson.M) (*ParsedQuery, error) {
	raw, err := directivesFrom(input)
	if err != nil {
		return nil, err
	}

	q := &ParsedQuery{original: raw}

	if q.selected, err = ParseSelect(raw); err != nil {
		return nil, err
	}
	if q.projection, err = ParseProjection(raw); err != nil {
		return nil, err
	}
	q.sort = ParseSort(raw)
	q.limit = ParseLimit(raw)
	q.skip = ParseSkip(raw)

	if v, ok := directive(raw, DirectiveRawQuery); ok {
		if q.rawQuery, err = rawquery.Parse(v); err != nil {
			return nil, err
		}
	}
	if v, ok := directive(raw, DirectiveFilter); ok {
		filter, err := cast.ToStringE(v)
		if err != nil {
			return nil, exceptions.NewQueryErrorf(exceptions.ErrFilterSyntax, "$filter must be a string, got %T", v)
		}
		if q.filter, err = odata.Parse(filter); err != nil {
			return nil, err
		}
	}

	var normalizedDefaults bson.M
	if defaults != nil {
		normalizedDefaults, _ = document.Normalize(defaults).(bson.M)
	}
	q.query = merge.All(q.filter, q.rawQuery, normalizedDefaults)

	return q, nil
}

// directivesFrom decodes the accepted input shapes into a directive map.
// For a key repeated in a query string the first value wins.
func directivesFrom(input any) (map[string]any, error) {
	switch v := input.(type) {
	case nil:
		return map[string]any{}, nil
	case string:
		values, err := url.ParseQuery(strings.TrimPrefix(v, "?"))
		if err != nil {
			return nil, exceptions.NewQueryError(exceptions.ErrInvalidQueryInput, "invalid query string").WithCause(err)
		}
		return fromValues(values), nil
	case url.Values:
		return fromValues(v), nil
	case bson.M:
		return maps.Clone(map[string]any(v)), nil
	case map[string]any:
		return maps.Clone(v), nil
	case map[string]string:
		raw := make(map[string]any, len(v))
		for key, value := range v {
			raw[key] = value
		}
		return raw, nil
	default:
		return nil, exceptions.NewQueryErrorf(exceptions.ErrInvalidQueryInput, "invalid parameter: query must be a string or a map, got %T", input)
	}
}

func fromValues(values url.Values) map[string]any {
	raw := make(map[string]any, len(values))
	for key, vals := range values {
		if len(vals) > 0 {
			raw[key] = vals[0]
		}
	}
	return raw
}

// Original returns the decoded directive map.
func (q *ParsedQuery) Original() map[string]any {
	return maps.Clone(q.original)
}

// Select returns the field inclusion (all true) or exclusion (all false)
// map, or nil when $select was not given.
func (q *ParsedQuery) Select() map[string]bool {
	return maps.Clone(q.selected)
}

func (q *ParsedQuery) Projection() bson.M {
	return cloneDoc(q.projection)
}

// Sort returns the sort specification with directions 1 or -1.
func (q *ParsedQuery) Sort() bson.D {
	return slices.Clone(q.sort)
}

// OrderBy is an alias of Sort.
func (q *ParsedQuery) OrderBy() bson.D {
	return q.Sort()
}

func (q *ParsedQuery) Limit() int64 {
	return q.limit
}

// Top is an alias of Limit.
func (q *ParsedQuery) Top() int64 {
	return q.limit
}

func (q *ParsedQuery) Skip() int64 {
	return q.skip
}

// Filter returns the fragment parsed from $filter, or nil.
func (q *ParsedQuery) Filter() bson.M {
	return cloneDoc(q.filter)
}

// RawQuery returns the coerced fragment parsed from $rawQuery, or nil.
func (q *ParsedQuery) RawQuery() bson.M {
	return cloneDoc(q.rawQuery)
}

// Query returns the final merged filter. It is never nil.
func (q *ParsedQuery) Query() bson.M {
	return cloneDoc(q.query)
}

func cloneDoc(doc bson.M) bson.M {
	if doc == nil {
		return nil
	}
	return merge.Clone(doc).(bson.M)
}
