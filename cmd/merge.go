package cmd

import (
	"context"
	"fmt"
	"io"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/PeerDB-io/mongoquery/query"
)

type MergeOptions struct {
	From   string
	To     string
	Mode   string
	Pretty bool
}

func MergeMain(_ context.Context, w io.Writer, opts *MergeOptions) error {
	mode := query.MergeMode(opts.Mode)
	if mode != query.MergeAnd && mode != query.MergeOr {
		return fmt.Errorf("invalid merge mode %q, expected and or or", opts.Mode)
	}

	merged, err := query.MergeFilters(opts.From, opts.To, mode)
	if err != nil {
		return err
	}
	if merged == nil {
		merged = bson.M{}
	}
	return writeDocument(w, merged, opts.Pretty)
}
