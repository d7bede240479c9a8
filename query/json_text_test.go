package query

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestNewDecodesJSONDirectives(t *testing.T) {
	input := url.Values{
		"$filter":     {"b eq 'f'"},
		"$rawQuery":   {`{"b": "r", "c": "r", "n": {"$int": "7"}, "when": {"$date": "2024-01-02T03:04:05Z"}}`},
		"$projection": {`{"name": 1, "nested": {"x": 0}}`},
	}.Encode()

	q, err := New(input, bson.M{"c": "d"})
	require.NoError(t, err)

	require.Equal(t, bson.M{
		"b":    "r",
		"c":    "r",
		"n":    int64(7),
		"when": time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}, q.RawQuery())
	require.Equal(t, bson.M{"name": int64(1), "nested": bson.M{"x": int64(0)}}, q.Projection())

	// filter < raw query < defaults
	require.Equal(t, bson.M{"b": "f"}, q.Filter())
	require.Equal(t, bson.M{
		"b":    "r",
		"c":    "d",
		"n":    int64(7),
		"when": time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}, q.Query())
}

func TestNewRawQueryArrayText(t *testing.T) {
	q, err := New(url.Values{"$rawQuery": {`{"tags": {"$in": [{"$int": "1"}, 2.5, "x"]}}`}}.Encode(), nil)
	require.NoError(t, err)
	require.Equal(t, bson.M{"tags": bson.M{"$in": bson.A{int64(1), 2.5, "x"}}}, q.Query())
}

func TestMergeFiltersFromJSONText(t *testing.T) {
	merged, err := MergeFilters(`{"a": 1}`, `{"$and": [{"b": 2}]}`, MergeAnd)
	require.NoError(t, err)
	require.Equal(t, bson.M{"$and": bson.A{bson.M{"b": int64(2)}, bson.M{"a": int64(1)}}}, merged)

	merged, err = MergeFilters(`{"a": 1}`, bson.M{"b": 2}, MergeOr)
	require.NoError(t, err)
	require.Equal(t, bson.M{"$or": bson.A{bson.M{"a": int64(1)}, bson.M{"b": 2}}}, merged)

	merged, err = MergeFilters(`{"a": [1, {"b": 2.5}]}`, "", MergeAnd)
	require.NoError(t, err)
	require.Equal(t, bson.M{"a": bson.A{int64(1), bson.M{"b": 2.5}}}, merged)
}
