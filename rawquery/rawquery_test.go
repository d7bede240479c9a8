package rawquery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/PeerDB-io/mongoquery/shared/exceptions"
)

//nolint:govet // fieldalignment: test code, readability preferred
func TestParse(t *testing.T) {
	oid := bson.NewObjectID()

	tests := []struct {
		name  string
		input any
		want  bson.M
	}{
		{
			name:  "int from string",
			input: `{"a": {"$int": "1"}}`,
			want:  bson.M{"a": int64(1)},
		},
		{
			name:  "float from string",
			input: `{"a": {"$float": "1.2"}}`,
			want:  bson.M{"a": 1.2},
		},
		{
			name:  "bool spellings",
			input: `{"a": {"$bool": "yes"}, "b": {"$bool": 0}, "c": {"$bool": "false"}, "d": {"$bool": "1"}, "e": {"$bool": null}, "f": {"$bool": "TRUE"}}`,
			want:  bson.M{"a": true, "b": false, "c": false, "d": true, "e": false, "f": true},
		},
		{
			name:  "unrecognised bool left unchanged",
			input: `{"a": {"$bool": "maybe"}}`,
			want:  bson.M{"a": "maybe"},
		},
		{
			name:  "string forms",
			input: `{"a": {"$string": 123}, "b": {"$string": null}, "c": {"$string": false}, "d": {"$string": 1.5}}`,
			want:  bson.M{"a": "123", "b": nil, "c": "false", "d": "1.5"},
		},
		{
			name:  "date from iso day",
			input: `{"a": {"$date": "2020-01-06"}}`,
			want:  bson.M{"a": time.Date(2020, 1, 6, 0, 0, 0, 0, time.UTC)},
		},
		{
			name:  "date from epoch millis",
			input: `{"a": {"$gt": {"$date": 1578268800000}}}`,
			want:  bson.M{"a": bson.M{"$gt": time.Date(2020, 1, 6, 0, 0, 0, 0, time.UTC)}},
		},
		{
			name:  "wrappers inside arrays",
			input: `{"a": {"$in": [{"$int": "1"}, {"$int": "2"}]}}`,
			want:  bson.M{"a": bson.M{"$in": bson.A{int64(1), int64(2)}}},
		},
		{
			name:  "object id from hex string",
			input: `{"_id": {"$objectId": "` + oid.Hex() + `"}}`,
			want:  bson.M{"_id": oid},
		},
		{
			name:  "object id from extended json",
			input: map[string]any{"_id": map[string]any{"$objectId": map[string]any{"$oid": oid.Hex()}}},
			want:  bson.M{"_id": oid},
		},
		{
			name:  "object id value passes through",
			input: bson.M{"_id": bson.M{"$objectId": oid}},
			want:  bson.M{"_id": oid},
		},
		{
			name:  "untagged identifier document is kept",
			input: bson.M{"ref": bson.M{"$oid": oid.Hex()}},
			want:  bson.M{"ref": bson.M{"$oid": oid.Hex()}},
		},
		{
			name:  "multi key document is not a wrapper",
			input: `{"a": {"$int": "1", "b": {"$int": "2"}}}`,
			want:  bson.M{"a": bson.M{"$int": "1", "b": int64(2)}},
		},
		{
			name:  "wrapper around a document is walked",
			input: `{"a": {"$string": {"b": {"$int": "3"}}}}`,
			want:  bson.M{"a": bson.M{"$string": bson.M{"b": int64(3)}}},
		},
		{
			name:  "no wrappers",
			input: `{"a": 1, "b": [true, "x"]}`,
			want:  bson.M{"a": int64(1), "b": bson.A{true, "x"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParseAbsent(t *testing.T) {
	got, err := Parse("")
	require.NoError(t, err)
	require.Nil(t, got)

	got, err = Parse(nil)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input any
		kind  exceptions.ErrorKind
		path  string
	}{
		{name: "malformed json", input: `{"a": `, kind: exceptions.ErrInvalidQueryInput},
		{name: "invalid object id", input: `{"_id": {"$objectId": "xxx"}}`, kind: exceptions.ErrInvalidIdentifier, path: "/_id"},
		{name: "bad int", input: `{"a": {"$in": [{"$int": "abc"}]}}`, kind: exceptions.ErrInvalidLiteral, path: "/a/$in/0"},
		{name: "bad float", input: `{"a": {"$float": true}}`, kind: exceptions.ErrInvalidLiteral, path: "/a"},
		{name: "bad date", input: `{"a": {"$date": "not a date"}}`, kind: exceptions.ErrInvalidLiteral, path: "/a"},
		{name: "top level array", input: `[1, 2]`, kind: exceptions.ErrInvalidQueryInput},
		{name: "top level wrapper", input: `{"$int": "1"}`, kind: exceptions.ErrInvalidQueryInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			require.Error(t, err)
			require.True(t, exceptions.IsKind(err, tt.kind), err.Error())

			qe, ok := err.(*exceptions.QueryError)
			require.True(t, ok)
			require.Equal(t, tt.path, qe.Path)
		})
	}
}

func TestParseDoesNotModifyInput(t *testing.T) {
	input := map[string]any{"a": map[string]any{"$int": "1"}}
	got, err := Parse(input)
	require.NoError(t, err)
	require.Equal(t, bson.M{"a": int64(1)}, got)
	require.Equal(t, map[string]any{"$int": "1"}, input["a"])
}

func TestCoerce(t *testing.T) {
	got, err := Coerce(bson.A{bson.M{"$bool": "no"}, bson.D{{Key: "x", Value: bson.M{"$int": 4}}}})
	require.NoError(t, err)
	require.Equal(t, bson.A{false, bson.D{{Key: "x", Value: int64(4)}}}, got)

	got, err = Coerce(bson.D{{Key: "$float", Value: "2.5"}})
	require.NoError(t, err)
	require.Equal(t, 2.5, got)
}

func TestCoerceBool(t *testing.T) {
	tests := []struct {
		input      any
		want       bool
		recognised bool
	}{
		{input: nil, want: false, recognised: true},
		{input: 0, want: false, recognised: true},
		{input: int64(1), want: true, recognised: true},
		{input: true, want: true, recognised: true},
		{input: "No", want: false, recognised: true},
		{input: "Yes", want: true, recognised: true},
		{input: 2, want: false, recognised: false},
		{input: "", want: false, recognised: false},
	}

	for _, tt := range tests {
		got, ok := CoerceBool(tt.input)
		require.Equal(t, tt.recognised, ok, "%v", tt.input)
		require.Equal(t, tt.want, got, "%v", tt.input)
	}
}
