// Package stats builds $inc updates for time-bucketed counters. A counter
// is incremented at its base path and at year, month, day and hour buckets
// beneath it, e.g. stats.views, stats.2024.views, stats.2024.03.views.
package stats

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/PeerDB-io/mongoquery/shared/document"
	"github.com/PeerDB-io/mongoquery/shared/exceptions"
)

type Increment struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}

type Options struct {
	Date       time.Time
	Query      bson.M
	StatsField string
	Increments []Increment
}

// Update is a filter plus the update document to apply to matching documents.
type Update struct {
	Filter bson.M
	Update bson.D
}

func missing(what string) error {
	return exceptions.NewQueryErrorf(exceptions.ErrInvalidQueryInput, "missing %s", what)
}

// BuildIncrement validates opts and builds the $inc update. Bucket paths use
// the UTC year, zero padded month, day and hour of opts.Date.
func BuildIncrement(opts Options) (*Update, error) {
	switch {
	case opts.StatsField == "":
		return nil, missing("stats field")
	case len(opts.Increments) == 0:
		return nil, missing("increments field")
	case opts.Date.IsZero():
		return nil, missing("date field")
	case opts.Query == nil:
		return nil, missing("query")
	}

	date := opts.Date.UTC()
	basePath := opts.StatsField + "."
	yearPath := basePath + strconv.Itoa(date.Year())
	monthPath := fmt.Sprintf("%s.%02d", yearPath, int(date.Month()))
	dayPath := fmt.Sprintf("%s.%02d", monthPath, date.Day())
	hourPath := fmt.Sprintf("%s.%02d", dayPath, date.Hour())

	var inc bson.D
	for _, increment := range opts.Increments {
		if increment.Field == "" {
			return nil, exceptions.NewQueryError(exceptions.ErrInvalidQueryInput, "increment field cannot be empty")
		}
		value, err := numeric(increment.Value)
		if err != nil {
			return nil, exceptions.NewQueryErrorf(exceptions.ErrInvalidLiteral, "increment %s is not a number", increment.Field).WithCause(err)
		}
		inc = document.Upsert(inc, basePath+increment.Field, value)
		for _, bucket := range []string{yearPath, monthPath, dayPath, hourPath} {
			inc = document.Upsert(inc, bucket+"."+increment.Field, value)
		}
	}

	filter, _ := document.Normalize(opts.Query).(bson.M)
	return &Update{
		Filter: filter,
		Update: bson.D{{Key: "$inc", Value: inc}},
	}, nil
}

// numeric keeps integers as int64 and other numbers as float64.
func numeric(v any) (any, error) {
	switch t := v.(type) {
	case int, int8, int16, int32, int64, uint8, uint16, uint32:
		return cast.ToInt64E(t)
	case float32, float64:
		return cast.ToFloat64E(t)
	case string:
		return ParseValue(t)
	default:
		return nil, fmt.Errorf("unsupported increment value of type %T", v)
	}
}

// ParseValue parses an increment amount given as text.
func ParseValue(s string) (any, error) {
	s = strings.TrimSpace(s)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, nil
	}
	return strconv.ParseFloat(s, 64)
}

// ParseIncrement parses "field=value"; a bare field increments by one.
func ParseIncrement(s string) (Increment, error) {
	field, value, found := strings.Cut(s, "=")
	field = strings.TrimSpace(field)
	if field == "" {
		return Increment{}, fmt.Errorf("invalid increment %q", s)
	}
	if !found {
		return Increment{Field: field, Value: int64(1)}, nil
	}
	n, err := ParseValue(value)
	if err != nil {
		return Increment{}, fmt.Errorf("invalid increment %q: %w", s, err)
	}
	return Increment{Field: field, Value: n}, nil
}

// UpdateCommand builds an update command applying u to the first matching
// document in collection.
func (u *Update) UpdateCommand(collection string) bson.D {
	return bson.D{
		{Key: "update", Value: collection},
		{Key: "updates", Value: bson.A{
			bson.D{
				{Key: "q", Value: u.Filter},
				{Key: "u", Value: u.Update},
			},
		}},
	}
}
