package aggregate

import (
	"strconv"
	"strings"

	"github.com/PeerDB-io/mongoquery/shared/document"
)

type visitFunc func(path []string, value any) error

// walk visits v and every value nested in it depth-first. Document keys
// are visited in sorted order for maps and in document order for bson.D.
// visit must not retain path.
func walk(v any, path []string, visit visitFunc) error {
	if err := visit(path, v); err != nil {
		return err
	}

	if arr, ok := document.AsArray(v); ok {
		for i, child := range arr {
			if err := walk(child, append(path[:len(path):len(path)], strconv.Itoa(i)), visit); err != nil {
				return err
			}
		}
		return nil
	}

	keys, ok := document.Keys(v)
	if !ok {
		return nil
	}
	for _, key := range keys {
		child, _ := document.Get(v, key)
		if err := walk(child, append(path[:len(path):len(path)], key), visit); err != nil {
			return err
		}
	}
	return nil
}

// joinPath renders path segments as /0/$lookup/from.
func joinPath(path []string) string {
	if len(path) == 0 {
		return ""
	}
	return "/" + strings.Join(path, "/")
}
