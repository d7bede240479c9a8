package merge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

//nolint:govet // fieldalignment: test code, readability preferred
func TestMerge(t *testing.T) {
	oid := bson.NewObjectID()
	when := time.Date(2020, 1, 6, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		target any
		source any
		want   any
	}{
		{
			name:   "disjoint keys",
			target: bson.M{"field2": "a"},
			source: bson.M{"field1": when},
			want:   bson.M{"field2": "a", "field1": when},
		},
		{
			name:   "nested mappings merge",
			target: bson.M{"a": bson.M{"$gt": 1}},
			source: map[string]any{"a": map[string]any{"$lt": 5}},
			want:   bson.M{"a": bson.M{"$gt": 1, "$lt": 5}},
		},
		{
			name:   "scalar overrides",
			target: bson.M{"a": 1},
			source: bson.M{"a": 2},
			want:   bson.M{"a": 2},
		},
		{
			name:   "same index merged in place",
			target: bson.M{"$and": bson.A{bson.M{"field2": "x"}}},
			source: bson.M{"$and": bson.A{bson.M{"field4": "y"}}},
			want:   bson.M{"$and": bson.A{bson.M{"field2": "x", "field4": "y"}}},
		},
		{
			name:   "longer source array adopts extra elements",
			target: bson.A{bson.M{"a": 1}},
			source: bson.A{bson.M{"b": 2}, bson.M{"c": 3}},
			want:   bson.A{bson.M{"a": 1, "b": 2}, bson.M{"c": 3}},
		},
		{
			name:   "scalars unioned by value",
			target: bson.A{1, 2},
			source: []any{2, 3},
			want:   bson.A{1, 2, 3},
		},
		{
			name:   "opaque values compared by value",
			target: bson.M{"_id": bson.M{"$in": bson.A{oid}}},
			source: bson.M{"_id": bson.M{"$in": bson.A{oid}}},
			want:   bson.M{"_id": bson.M{"$in": bson.A{oid}}},
		},
		{
			name:   "object id is not merged through",
			target: bson.M{"_id": bson.M{"x": 1}},
			source: bson.M{"_id": oid},
			want:   bson.M{"_id": oid},
		},
		{
			name:   "ordered document is opaque",
			target: bson.M{"s": bson.M{"a": 1}},
			source: bson.M{"s": bson.D{{Key: "b", Value: 1}}},
			want:   bson.M{"s": bson.D{{Key: "b", Value: 1}}},
		},
		{
			name:   "array replaces mapping",
			target: bson.M{"a": bson.M{"x": 1}},
			source: bson.M{"a": bson.A{1}},
			want:   bson.M{"a": bson.A{1}},
		},
		{
			name:   "mapping replaces array",
			target: bson.M{"a": bson.A{1}},
			source: bson.M{"a": bson.M{"x": 1}},
			want:   bson.M{"a": bson.M{"x": 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Merge(tt.target, tt.source))
		})
	}
}

func TestMergeDoesNotAlias(t *testing.T) {
	target := bson.M{"a": bson.A{bson.M{"x": 1}}}
	source := bson.M{"b": bson.M{"y": 2}}

	merged := Merge(target, source).(bson.M)
	merged["a"].(bson.A)[0].(bson.M)["x"] = 100
	merged["b"].(bson.M)["y"] = 200

	require.Equal(t, 1, target["a"].(bson.A)[0].(bson.M)["x"])
	require.Equal(t, 2, source["b"].(bson.M)["y"])
}

func TestAll(t *testing.T) {
	when := time.Date(2020, 1, 6, 0, 0, 0, 0, time.UTC)

	got := All(bson.M{"field2": "a"}, nil, bson.M{"field1": when}, bson.M{"field3": 3})
	require.Equal(t, bson.M{"field2": "a", "field1": when, "field3": 3}, got)

	require.Equal(t, bson.M{}, All())
	require.Equal(t, bson.M{}, All(nil, nil))
}

func TestIsMergeable(t *testing.T) {
	require.True(t, IsMergeable(bson.M{}))
	require.True(t, IsMergeable(map[string]any{}))
	require.True(t, IsMergeable(bson.A{}))
	require.True(t, IsMergeable([]any{}))
	require.False(t, IsMergeable(bson.D{}))
	require.False(t, IsMergeable(bson.NewObjectID()))
	require.False(t, IsMergeable(time.Now()))
	require.False(t, IsMergeable(bson.Regex{Pattern: "x"}))
	require.False(t, IsMergeable("text"))
	require.False(t, IsMergeable(nil))
}

func TestClone(t *testing.T) {
	src := map[string]any{"a": []any{map[string]any{"b": 1}}, "c": "d"}
	cloned := Clone(src).(bson.M)
	require.Equal(t, bson.M{"a": bson.A{bson.M{"b": 1}}, "c": "d"}, cloned)

	cloned["a"].(bson.A)[0].(bson.M)["b"] = 2
	require.Equal(t, 1, src["a"].([]any)[0].(map[string]any)["b"])

	require.Equal(t, 5, Clone(5))
}
