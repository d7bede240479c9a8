package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/PeerDB-io/mongoquery/logger"
	"github.com/PeerDB-io/mongoquery/query"
	"github.com/PeerDB-io/mongoquery/shared/document"
)

type ParseOptions struct {
	Input      string
	Defaults   string
	Collection string
	Count      bool
	Pretty     bool
}

// ParseMain parses a query string and prints either the parsed directives or,
// when a collection is given, the find (or count) command for it.
func ParseMain(ctx context.Context, w io.Writer, opts *ParseOptions) error {
	input, err := readInput(opts.Input)
	if err != nil {
		return err
	}

	var defaults bson.M
	if opts.Defaults != "" {
		if defaults, err = document.DecodeDocument(opts.Defaults); err != nil {
			return fmt.Errorf("invalid defaults: %w", err)
		}
	}

	q, err := query.New(input, defaults)
	if err != nil {
		return err
	}

	if opts.Collection != "" {
		ctx = logger.WithCollection(ctx, opts.Collection)
		logger.LoggerFromCtx(ctx).Debug("built query command",
			slog.Bool("count", opts.Count), slog.Int64("limit", q.Limit()), slog.Int64("skip", q.Skip()))
		if opts.Count {
			return writeDocument(w, q.CountCommand(opts.Collection), opts.Pretty)
		}
		return writeDocument(w, q.FindCommand(opts.Collection), opts.Pretty)
	}

	out := bson.D{{Key: "query", Value: q.Query()}}
	if sel := q.Select(); sel != nil {
		out = append(out, bson.E{Key: "select", Value: sel})
	}
	if projection := q.Projection(); projection != nil {
		out = append(out, bson.E{Key: "projection", Value: projection})
	}
	if sort := q.Sort(); sort != nil {
		out = append(out, bson.E{Key: "sort", Value: sort})
	}
	out = append(out,
		bson.E{Key: "limit", Value: q.Limit()},
		bson.E{Key: "skip", Value: q.Skip()},
	)
	if filter := q.Filter(); filter != nil {
		out = append(out, bson.E{Key: "filter", Value: filter})
	}
	if raw := q.RawQuery(); raw != nil {
		out = append(out, bson.E{Key: "rawQuery", Value: raw})
	}
	return writeDocument(w, out, opts.Pretty)
}
