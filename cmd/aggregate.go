package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/PeerDB-io/mongoquery/aggregate"
	"github.com/PeerDB-io/mongoquery/logger"
	"github.com/PeerDB-io/mongoquery/shared/document"
)

type AggregateOptions struct {
	Pipeline   string
	Collection string
	Strip      bool
	Pretty     bool
}

func decodePipeline(arg string) (any, error) {
	text, err := readInput(arg)
	if err != nil {
		return nil, err
	}
	pipeline, err := document.DecodeJSON(text)
	if err != nil {
		return nil, fmt.Errorf("invalid pipeline json: %w", err)
	}
	return pipeline, nil
}

func LookupPathsMain(_ context.Context, w io.Writer, opts *AggregateOptions) error {
	pipeline, err := decodePipeline(opts.Pipeline)
	if err != nil {
		return err
	}

	paths, err := aggregate.LookupPaths(pipeline)
	if err != nil {
		return err
	}

	out := make(bson.A, 0, len(paths))
	for _, p := range paths {
		out = append(out, bson.D{{Key: "path", Value: p.Path}, {Key: "collection", Value: p.Collection}})
	}
	return writeDocument(w, bson.D{{Key: "paths", Value: out}}, opts.Pretty)
}

// CleanAggregateMain prints the cleaned pipeline, or the aggregate command
// when a collection is given. Without Strip an unsafe stage is an error.
func CleanAggregateMain(ctx context.Context, w io.Writer, opts *AggregateOptions) error {
	pipeline, err := decodePipeline(opts.Pipeline)
	if err != nil {
		return err
	}

	cleaned, err := aggregate.Clean(pipeline, !opts.Strip)
	if err != nil {
		return err
	}
	if stages, ok := document.AsArray(pipeline); ok && len(stages) != len(cleaned) {
		logger.LoggerFromCtx(ctx).Info("stripped unsafe stages", slog.Int("removed", len(stages)-len(cleaned)))
	}

	if opts.Collection != "" {
		ctx = logger.WithCollection(ctx, opts.Collection)
		cmd, err := aggregate.Command(opts.Collection, cleaned)
		if err != nil {
			return err
		}
		logger.LoggerFromCtx(ctx).Debug("built aggregate command", slog.Int("stages", len(cleaned)))
		return writeDocument(w, cmd, opts.Pretty)
	}
	return writeDocument(w, bson.D{{Key: "pipeline", Value: cleaned}}, opts.Pretty)
}
