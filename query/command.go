package query

import (
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/PeerDB-io/mongoquery/mqenv"
)

// effectiveProjection is $projection when given, else the $select map.
func (q *ParsedQuery) effectiveProjection() bson.M {
	if q.projection != nil {
		return q.Projection()
	}
	if q.selected == nil {
		return nil
	}
	projection := make(bson.M, len(q.selected))
	for field, include := range q.selected {
		projection[field] = include
	}
	return projection
}

// FindCommand builds the find command document for collection, carrying the
// server-side time limit from MONGOQUERY_QUERY_TIMEOUT_MS.
func (q *ParsedQuery) FindCommand(collection string) bson.D {
	cmd := bson.D{
		{Key: "find", Value: collection},
		{Key: "filter", Value: q.Query()},
	}

	if projection := q.effectiveProjection(); projection != nil {
		cmd = append(cmd, bson.E{Key: "projection", Value: projection})
	}
	if q.sort != nil {
		cmd = append(cmd, bson.E{Key: "sort", Value: q.Sort()})
	}

	cmd = append(cmd,
		bson.E{Key: "skip", Value: q.skip},
		bson.E{Key: "limit", Value: q.limit},
		bson.E{Key: "maxTimeMS", Value: mqenv.MongoQueryQueryTimeout().Milliseconds()},
	)
	return cmd
}

// CountCommand builds the count command document for collection. Paging
// directives do not apply to counts.
func (q *ParsedQuery) CountCommand(collection string) bson.D {
	return bson.D{
		{Key: "count", Value: collection},
		{Key: "query", Value: q.Query()},
		{Key: "maxTimeMS", Value: mqenv.MongoQueryQueryTimeout().Milliseconds()},
	}
}

// FindOptions returns driver options for Collection.Find. The time limit is
// left to the caller's context deadline.
func (q *ParsedQuery) FindOptions() *options.FindOptionsBuilder {
	opts := options.Find().SetLimit(q.limit).SetSkip(q.skip)
	if projection := q.effectiveProjection(); projection != nil {
		opts.SetProjection(projection)
	}
	if q.sort != nil {
		opts.SetSort(q.Sort())
	}
	return opts
}
