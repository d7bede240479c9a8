// Package odata translates OData $filter expressions into MongoDB filter
// fragments.
package odata

import (
	"net/url"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/PeerDB-io/mongoquery/shared/exceptions"
)

// Parse URI-decodes filter, parses it and transforms the tree into a
// filter fragment.
func Parse(filter string) (bson.M, error) {
	decoded, err := url.PathUnescape(filter)
	if err != nil {
		return nil, exceptions.NewQueryError(exceptions.ErrFilterSyntax, "filter is not valid URI encoding").WithCause(err)
	}

	root, err := ParseExpression(decoded)
	if err != nil {
		return nil, err
	}
	return Transform(root), nil
}
