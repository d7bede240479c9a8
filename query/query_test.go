package query

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/PeerDB-io/mongoquery/shared/exceptions"
)

func TestNewFromQueryString(t *testing.T) {
	q, err := New("$sort=-field1,field2&$select=field1,field2", nil)
	require.NoError(t, err)

	require.Equal(t, map[string]bool{"field1": true, "field2": true}, q.Select())
	require.Equal(t, bson.D{{Key: "field1", Value: int32(-1)}, {Key: "field2", Value: int32(1)}}, q.Sort())
	require.Equal(t, q.Sort(), q.OrderBy())
	require.Equal(t, int64(50), q.Limit())
	require.Equal(t, q.Limit(), q.Top())
	require.Equal(t, int64(0), q.Skip())
	require.Equal(t, bson.M{}, q.Query())
	require.Nil(t, q.Filter())
	require.Nil(t, q.RawQuery())
	require.Nil(t, q.Projection())
}

func TestNewRejectsInvalidInput(t *testing.T) {
	_, err := New(42, nil)
	require.True(t, exceptions.IsKind(err, exceptions.ErrInvalidQueryInput))

	_, err = New("$select=field1,-field2", nil)
	require.True(t, exceptions.IsKind(err, exceptions.ErrInvalidSelect))

	_, err = New("$filter=a eq", nil)
	require.True(t, exceptions.IsKind(err, exceptions.ErrFilterSyntax))

	_, err = New(`$rawQuery={"a":`, nil)
	require.True(t, exceptions.IsKind(err, exceptions.ErrInvalidQueryInput))

	_, err = New("a=%zz", nil)
	require.True(t, exceptions.IsKind(err, exceptions.ErrInvalidQueryInput))
}

func TestNewNilInput(t *testing.T) {
	q, err := New(nil, nil)
	require.NoError(t, err)
	require.Equal(t, bson.M{}, q.Query())
	require.Equal(t, map[string]any{}, q.Original())
}

//nolint:govet // fieldalignment: test code, readability preferred
func TestNewQuery(t *testing.T) {
	jan2016 := time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC)
	oid := bson.NewObjectID()

	tests := []struct {
		name     string
		input    any
		defaults bson.M
		want     bson.M
	}{
		{
			name:  "filter with member path",
			input: "$filter=field1/field2 eq 'a'",
			want:  bson.M{"field1.field2": "a"},
		},
		{
			name:  "raw query string",
			input: `$rawQuery={"field1.field2":{"$date":"2016-01-01T00:00:00Z"}}`,
			want:  bson.M{"field1.field2": jan2016},
		},
		{
			name:  "raw query with array",
			input: map[string]any{"$rawQuery": map[string]any{"$or": []any{map[string]any{"field1.field2": map[string]any{"$date": "2016-01-01T00:00:00Z"}}}}},
			want:  bson.M{"$or": bson.A{bson.M{"field1.field2": jan2016}}},
		},
		{
			name:  "raw query with int in array",
			input: bson.M{"$rawQuery": bson.M{"field": bson.M{"$in": bson.A{bson.M{"$int": "1"}, bson.M{"$int": "2"}}}}},
			want:  bson.M{"field": bson.M{"$in": bson.A{int64(1), int64(2)}}},
		},
		{
			name:  "raw query with object id value",
			input: bson.M{"$rawQuery": bson.M{"field1.field2": bson.M{"$objectId": oid}}},
			want:  bson.M{"field1.field2": oid},
		},
		{
			name:  "raw query with nested date",
			input: bson.M{"$rawQuery": bson.M{"$and": bson.A{bson.M{"_dateUpdated": bson.M{"$gt": bson.M{"$date": "2020-01-06"}}}}}},
			want:  bson.M{"$and": bson.A{bson.M{"_dateUpdated": bson.M{"$gt": time.Date(2020, 1, 6, 0, 0, 0, 0, time.UTC)}}}},
		},
		{
			name:  "filter and raw query",
			input: `$filter=field2 eq 'a'&$rawQuery={"field1":{"$date":"2016-01-01T00:00:00Z"}}`,
			want:  bson.M{"field1": jan2016, "field2": "a"},
		},
		{
			name:     "filter raw query and defaults",
			input:    `$filter=field2 eq 'a'&$rawQuery={"field1":{"$date":"2016-01-01T00:00:00Z"}}`,
			defaults: bson.M{"field3": 3},
			want:     bson.M{"field1": jan2016, "field2": "a", "field3": 3},
		},
		{
			name:     "object id default",
			input:    `$filter=field2 eq 'a'&$rawQuery={"field1":{"$date":"2016-01-01T00:00:00Z"}}`,
			defaults: bson.M{"field3": oid},
			want:     bson.M{"field1": jan2016, "field2": "a", "field3": oid},
		},
		{
			name:     "and arrays merge by position",
			input:    `$rawQuery={"$and":[{"field2":"x"}],"field1":{"$date":"2016-01-01T00:00:00Z"}}`,
			defaults: bson.M{"field3": oid, "$and": bson.A{bson.M{"field4": "y"}}},
			want: bson.M{
				"field1": jan2016,
				"$and":   bson.A{bson.M{"field2": "x", "field4": "y"}},
				"field3": oid,
			},
		},
		{
			name:     "defaults override filter values",
			input:    "$filter=status eq 'draft'",
			defaults: bson.M{"status": "published"},
			want:     bson.M{"status": "published"},
		},
		{
			name:  "url values",
			input: url.Values{"$filter": {"a eq 1", "b eq 2"}},
			want:  bson.M{"a": int64(1)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := New(tt.input, tt.defaults)
			require.NoError(t, err)
			require.Equal(t, tt.want, q.Query())
		})
	}
}

func TestParsedQueryAccessorsReturnCopies(t *testing.T) {
	q, err := New(map[string]any{
		"$select":     "a",
		"$projection": `{"b": 1}`,
		"$sort":       "a",
		"$filter":     "a eq 1",
	}, nil)
	require.NoError(t, err)

	q.Select()["x"] = true
	q.Projection()["x"] = 1
	q.Sort()[0].Value = int32(-1)
	q.Query()["x"] = 1
	q.Filter()["x"] = 1
	q.Original()["x"] = 1

	require.Equal(t, map[string]bool{"a": true}, q.Select())
	require.Equal(t, bson.M{"b": int64(1)}, q.Projection())
	require.Equal(t, bson.D{{Key: "a", Value: int32(1)}}, q.Sort())
	require.Equal(t, bson.M{"a": int64(1)}, q.Query())
	require.Equal(t, bson.M{"a": int64(1)}, q.Filter())
	require.NotContains(t, q.Original(), "x")
}

func TestNewDoesNotModifyDefaults(t *testing.T) {
	defaults := bson.M{"$and": bson.A{bson.M{"field4": "y"}}}
	_, err := New(`$rawQuery={"$and":[{"field2":"x"}]}`, defaults)
	require.NoError(t, err)
	require.Equal(t, bson.M{"$and": bson.A{bson.M{"field4": "y"}}}, defaults)
}

func TestFindCommand(t *testing.T) {
	t.Setenv("MONGOQUERY_QUERY_TIMEOUT_MS", "")

	q, err := New("$filter=age gt 21&$select=name,age&$orderby=age desc&$top=10&$skip=20", nil)
	require.NoError(t, err)

	require.Equal(t, bson.D{
		{Key: "find", Value: "users"},
		{Key: "filter", Value: bson.M{"age": bson.M{"$gt": int64(21)}}},
		{Key: "projection", Value: bson.M{"name": true, "age": true}},
		{Key: "sort", Value: bson.D{{Key: "age", Value: int32(-1)}}},
		{Key: "skip", Value: int64(20)},
		{Key: "limit", Value: int64(10)},
		{Key: "maxTimeMS", Value: int64(120000)},
	}, q.FindCommand("users"))

	require.Equal(t, bson.D{
		{Key: "count", Value: "users"},
		{Key: "query", Value: bson.M{"age": bson.M{"$gt": int64(21)}}},
		{Key: "maxTimeMS", Value: int64(120000)},
	}, q.CountCommand("users"))
}

func TestFindCommandProjectionWinsOverSelect(t *testing.T) {
	t.Setenv("MONGOQUERY_QUERY_TIMEOUT_MS", "5000")

	q, err := New(map[string]any{"$select": "a", "$projection": bson.M{"b": 1}}, nil)
	require.NoError(t, err)

	cmd := q.FindCommand("c")
	require.Equal(t, bson.E{Key: "projection", Value: bson.M{"b": 1}}, cmd[2])
	require.Equal(t, bson.E{Key: "maxTimeMS", Value: int64(5000)}, cmd[len(cmd)-1])
}

func TestFindOptions(t *testing.T) {
	q, err := New("$select=-secret&$sort=name&$limit=5&$skip=1", nil)
	require.NoError(t, err)

	var opts options.FindOptions
	for _, set := range q.FindOptions().List() {
		require.NoError(t, set(&opts))
	}

	require.Equal(t, int64(5), *opts.Limit)
	require.Equal(t, int64(1), *opts.Skip)
	require.Equal(t, bson.M{"secret": false}, opts.Projection)
	require.Equal(t, bson.D{{Key: "name", Value: int32(1)}}, opts.Sort)
}
