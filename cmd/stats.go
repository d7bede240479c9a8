package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cast"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/PeerDB-io/mongoquery/rawquery"
	"github.com/PeerDB-io/mongoquery/shared/document"
	"github.com/PeerDB-io/mongoquery/stats"
)

type StatsUpdateOptions struct {
	Field      string
	Date       string
	Query      string
	Collection string

	// JSON array of {"field", "value"} objects, added after Increments
	IncrementsJSON string
	Increments     []string
	Pretty         bool
}

// StatsUpdateMain prints the update for a set of counter increments. The
// query accepts the same typed literals as $rawQuery.
func StatsUpdateMain(_ context.Context, w io.Writer, opts *StatsUpdateOptions) error {
	increments := make([]stats.Increment, 0, len(opts.Increments))
	for _, s := range opts.Increments {
		inc, err := stats.ParseIncrement(s)
		if err != nil {
			return err
		}
		increments = append(increments, inc)
	}
	if opts.IncrementsJSON != "" {
		var decoded []stats.Increment
		if err := document.Unmarshal(opts.IncrementsJSON, &decoded); err != nil {
			return fmt.Errorf("invalid increments json: %w", err)
		}
		increments = append(increments, decoded...)
	}

	date := time.Now()
	if opts.Date != "" {
		parsed, err := cast.ToTimeInDefaultLocationE(opts.Date, time.UTC)
		if err != nil {
			return fmt.Errorf("invalid date %q: %w", opts.Date, err)
		}
		date = parsed
	}

	filter, err := rawquery.Parse(opts.Query)
	if err != nil {
		return err
	}

	update, err := stats.BuildIncrement(stats.Options{
		StatsField: opts.Field,
		Increments: increments,
		Date:       date,
		Query:      filter,
	})
	if err != nil {
		return err
	}

	if opts.Collection != "" {
		return writeDocument(w, update.UpdateCommand(opts.Collection), opts.Pretty)
	}
	return writeDocument(w, bson.D{
		{Key: "filter", Value: update.Filter},
		{Key: "update", Value: update.Update},
	}, opts.Pretty)
}
