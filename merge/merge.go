// Package merge deep-merges filter fragments. Mappings merge key by key and
// arrays merge index by index, so that fragments combined from several
// sources keep every constraint.
package merge

import (
	"reflect"

	"github.com/google/go-cmp/cmp"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// IsMergeable reports whether v is a plain mapping or sequence. Ordered
// documents and driver values (identifiers, dates, regexes, decimals) are
// opaque and replaced wholesale.
func IsMergeable(v any) bool {
	switch v.(type) {
	case bson.M, map[string]any, bson.A, []any:
		return true
	default:
		return false
	}
}

func asArray(v any) ([]any, bool) {
	switch t := v.(type) {
	case bson.A:
		return t, true
	case []any:
		return t, true
	default:
		return nil, false
	}
}

func asMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case bson.M:
		return t, true
	case map[string]any:
		return t, true
	default:
		return nil, false
	}
}

// Merge returns a new value combining source into target. Neither argument
// is modified and the result shares no mergeable containers with them.
//
// When exactly one side is an array, or source is not mergeable, the result
// is a clone of source. Two arrays are combined index by index. Otherwise the
// result is a bson.M holding target's keys followed by source's, where a key
// present on both sides is merged recursively if the source value is
// mergeable and replaced otherwise.
func Merge(target any, source any) any {
	if !IsMergeable(source) {
		return source
	}

	sourceArr, sourceIsArr := asArray(source)
	targetArr, targetIsArr := asArray(target)
	if sourceIsArr != targetIsArr {
		return Clone(source)
	}
	if sourceIsArr {
		return combine(targetArr, sourceArr)
	}
	return mergeObject(target, source)
}

func mergeObject(target any, source any) bson.M {
	destination := bson.M{}

	targetMap, targetOK := asMap(target)
	if targetOK {
		for key, value := range targetMap {
			destination[key] = Clone(value)
		}
	}

	sourceMap, _ := asMap(source)
	for key, value := range sourceMap {
		if existing, ok := targetMap[key]; ok && targetOK && IsMergeable(value) {
			destination[key] = Merge(existing, value)
		} else {
			destination[key] = Clone(value)
		}
	}
	return destination
}

// combine merges source into a copy of target. Positions already occupied
// are merged when the source element is mergeable; otherwise the element is
// appended unless target already holds an equal value.
func combine(target []any, source []any) bson.A {
	destination := make(bson.A, len(target), len(target)+len(source))
	for i, e := range target {
		destination[i] = Clone(e)
	}

	for i, e := range source {
		switch {
		case i >= len(destination):
			destination = append(destination, Clone(e))
		case IsMergeable(e):
			var existing any
			if i < len(target) {
				existing = target[i]
			}
			destination[i] = Merge(existing, e)
		case !contains(target, e):
			destination = append(destination, e)
		}
	}
	return destination
}

var exportAll = cmp.Exporter(func(reflect.Type) bool { return true })

func contains(values []any, v any) bool {
	for _, candidate := range values {
		if cmp.Equal(candidate, v, exportAll) {
			return true
		}
	}
	return false
}

// Clone deep-copies the mergeable containers in v.
func Clone(v any) any {
	if arr, ok := asArray(v); ok {
		return combine(nil, arr)
	}
	if _, ok := asMap(v); ok {
		return mergeObject(nil, v)
	}
	return v
}

// All merges fragments left to right onto an empty document, skipping nil
// fragments.
func All(fragments ...bson.M) bson.M {
	result := bson.M{}
	for _, fragment := range fragments {
		if fragment == nil {
			continue
		}
		result = mergeObject(result, fragment)
	}
	return result
}
