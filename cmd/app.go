package cmd

import (
	"context"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/PeerDB-io/mongoquery/logger"
	"github.com/PeerDB-io/mongoquery/mqenv"
)

// NewApp builds the command line interface writing results to w.
func NewApp(w io.Writer) *cli.Command {
	prettyFlag := &cli.BoolFlag{
		Name:    "pretty",
		Value:   mqenv.MongoQueryPretty(),
		Usage:   "Indent JSON output",
		Sources: cli.EnvVars("MONGOQUERY_PRETTY"),
	}

	requestIDFlag := &cli.StringFlag{
		Name:    "request-id",
		Usage:   "Request id attached to log records",
		Sources: cli.EnvVars("MONGOQUERY_REQUEST_ID"),
	}

	collectionFlag := &cli.StringFlag{
		Name:  "collection",
		Usage: "Emit a database command against this collection",
	}

	return &cli.Command{
		Name:  "mongoquery",
		Usage: "Translate URL query strings and pipelines into MongoDB queries",
		Flags: []cli.Flag{prettyFlag, requestIDFlag},
		Before: func(ctx context.Context, clicmd *cli.Command) (context.Context, error) {
			if id := clicmd.String("request-id"); id != "" {
				ctx = logger.WithRequestID(ctx, id)
			}
			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:      "parse",
				Usage:     "Parse a query string into a MongoDB query",
				ArgsUsage: "QUERY",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "defaults",
						Usage: "JSON document merged under the parsed query",
					},
					collectionFlag,
					&cli.BoolFlag{
						Name:  "count",
						Usage: "Emit a count command instead of find",
					},
				},
				Action: func(ctx context.Context, clicmd *cli.Command) error {
					return ParseMain(ctx, w, &ParseOptions{
						Input:      clicmd.Args().First(),
						Defaults:   clicmd.String("defaults"),
						Collection: clicmd.String("collection"),
						Count:      clicmd.Bool("count"),
						Pretty:     clicmd.Bool("pretty"),
					})
				},
			},
			{
				Name:      "merge",
				Usage:     "Combine two filters",
				ArgsUsage: "FROM TO",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "mode",
						Value: "and",
						Usage: "Combinator, and or or",
					},
				},
				Action: func(ctx context.Context, clicmd *cli.Command) error {
					return MergeMain(ctx, w, &MergeOptions{
						From:   clicmd.Args().Get(0),
						To:     clicmd.Args().Get(1),
						Mode:   clicmd.String("mode"),
						Pretty: clicmd.Bool("pretty"),
					})
				},
			},
			{
				Name:      "lookup-paths",
				Usage:     "List the collections an aggregation pipeline reads through $lookup",
				ArgsUsage: "PIPELINE",
				Action: func(ctx context.Context, clicmd *cli.Command) error {
					return LookupPathsMain(ctx, w, &AggregateOptions{
						Pipeline: clicmd.Args().First(),
						Pretty:   clicmd.Bool("pretty"),
					})
				},
			},
			{
				Name:      "clean-aggregate",
				Usage:     "Validate an aggregation pipeline against the unsafe operator list",
				ArgsUsage: "PIPELINE",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "strip",
						Usage: "Drop unsafe stages instead of failing",
					},
					collectionFlag,
				},
				Action: func(ctx context.Context, clicmd *cli.Command) error {
					return CleanAggregateMain(ctx, w, &AggregateOptions{
						Pipeline:   clicmd.Args().First(),
						Collection: clicmd.String("collection"),
						Strip:      clicmd.Bool("strip"),
						Pretty:     clicmd.Bool("pretty"),
					})
				},
			},
			{
				Name:  "stats-update",
				Usage: "Build a time-bucketed counter update",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "field",
						Usage:    "Root field holding the counters",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:  "inc",
						Usage: "Increment as field=value, repeatable",
					},
					&cli.StringFlag{
						Name:  "increments",
						Usage: `JSON array of {"field": ..., "value": ...} increments`,
					},
					&cli.StringFlag{
						Name:  "date",
						Usage: "Timestamp of the event, defaults to now",
					},
					&cli.StringFlag{
						Name:  "query",
						Usage: "JSON filter selecting the document to update",
					},
					collectionFlag,
				},
				Action: func(ctx context.Context, clicmd *cli.Command) error {
					return StatsUpdateMain(ctx, w, &StatsUpdateOptions{
						Field:          clicmd.String("field"),
						Increments:     clicmd.StringSlice("inc"),
						IncrementsJSON: clicmd.String("increments"),
						Date:           clicmd.String("date"),
						Query:          clicmd.String("query"),
						Collection:     clicmd.String("collection"),
						Pretty:         clicmd.Bool("pretty"),
					})
				},
			},
		},
	}
}
