// Package aggregate inspects user supplied aggregation pipelines: it lists
// the collections they reference and strips or rejects unsafe operators.
package aggregate

import (
	"strconv"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/PeerDB-io/mongoquery/shared/document"
	"github.com/PeerDB-io/mongoquery/shared/exceptions"
)

// LookupPath is a reference from a pipeline to another collection.
type LookupPath struct {
	Path       string `json:"path"`
	Collection string `json:"collection"`
}

func isLookupTarget(path []string) bool {
	n := len(path)
	if n == 0 {
		return false
	}
	if path[n-1] == "$unionWith" {
		return true
	}
	if n < 2 {
		return false
	}
	switch parent, key := path[n-2], path[n-1]; {
	case key == "from":
		return parent == "$lookup" || parent == "$graphLookup"
	case key == "coll":
		return parent == "$unionWith"
	default:
		return false
	}
}

// LookupPaths lists every $lookup.from, $graphLookup.from and $unionWith
// collection reference in pipeline, including those inside sub-pipelines.
func LookupPaths(pipeline any) ([]LookupPath, error) {
	stages, ok := document.AsArray(document.Normalize(pipeline))
	if !ok {
		return nil, exceptions.NewQueryErrorf(exceptions.ErrInvalidQueryInput, "invalid aggregate array: got %T", pipeline)
	}

	var paths []LookupPath
	err := walk(stages, nil, func(path []string, value any) error {
		if collection, ok := value.(string); ok && isLookupTarget(path) {
			paths = append(paths, LookupPath{Path: joinPath(path), Collection: collection})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// Clean returns a copy of pipeline without unsafe stages, recursing into
// $lookup and $unionWith sub-pipelines. With throwOnUnsafe an unsafe stage
// is an error instead. The remaining tree is then scanned and any key naming
// an unsafe operator is rejected.
func Clean(pipeline any, throwOnUnsafe bool) (bson.A, error) {
	stages, ok := document.AsArray(document.Normalize(pipeline))
	if !ok {
		return nil, exceptions.NewQueryErrorf(exceptions.ErrInvalidQueryInput, "invalid aggregate array: got %T", pipeline)
	}

	cleaned, err := stripStages(stages, nil, throwOnUnsafe)
	if err != nil {
		return nil, err
	}

	err = walk(cleaned, nil, func(path []string, _ any) error {
		if len(path) > 0 && IsUnsafe(path[len(path)-1]) {
			return exceptions.NewQueryErrorf(exceptions.ErrUnsafePipeline, "unsafe operator %s", path[len(path)-1]).
				WithPath(joinPath(path))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cleaned, nil
}

var subPipelineStages = []string{"$lookup", "$unionWith"}

func stripStages(stages []any, path []string, throwOnUnsafe bool) (bson.A, error) {
	out := make(bson.A, 0, len(stages))
	for i, stage := range stages {
		stagePath := append(path[:len(path):len(path)], strconv.Itoa(i))

		if name, unsafe := unsafeStage(stage); unsafe {
			if throwOnUnsafe {
				return nil, exceptions.NewQueryErrorf(exceptions.ErrUnsafePipeline, "unsafe stage %s in pipeline", name).
					WithPath(joinPath(append(stagePath, name)))
			}
			continue
		}

		for _, stageName := range subPipelineStages {
			spec, ok := document.Get(stage, stageName)
			if !ok {
				continue
			}
			inner, ok := document.Get(spec, "pipeline")
			if !ok || inner == nil {
				continue
			}
			innerPath := append(stagePath[:len(stagePath):len(stagePath)], stageName, "pipeline")
			innerStages, ok := document.AsArray(inner)
			if !ok {
				return nil, exceptions.NewQueryErrorf(exceptions.ErrInvalidQueryInput, "invalid aggregate array: got %T", inner).
					WithPath(joinPath(innerPath))
			}
			cleaned, err := stripStages(innerStages, innerPath, throwOnUnsafe)
			if err != nil {
				return nil, err
			}
			document.Set(spec, "pipeline", cleaned)
		}

		out = append(out, stage)
	}
	return out, nil
}

func unsafeStage(stage any) (string, bool) {
	for _, name := range unsafeStages {
		if v, ok := document.Get(stage, name); ok && v != nil {
			return name, true
		}
	}
	return "", false
}

// Command builds an aggregate command document for collection from a
// cleaned copy of pipeline. Unsafe stages are an error.
func Command(collection string, pipeline any) (bson.D, error) {
	cleaned, err := Clean(pipeline, true)
	if err != nil {
		return nil, err
	}
	return bson.D{
		{Key: "aggregate", Value: collection},
		{Key: "pipeline", Value: cleaned},
		{Key: "cursor", Value: bson.D{}},
	}, nil
}
