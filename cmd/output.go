package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// writeDocument prints doc as relaxed extended JSON.
func writeDocument(w io.Writer, doc any, pretty bool) error {
	var out []byte
	var err error
	if pretty {
		out, err = bson.MarshalExtJSONIndent(doc, false, false, "", "  ")
	} else {
		out, err = bson.MarshalExtJSON(doc, false, false)
	}
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	if _, err := w.Write(append(out, '\n')); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// readInput returns arg, or stdin when arg is empty or "-".
func readInput(arg string) (string, error) {
	if arg != "" && arg != "-" {
		return arg, nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
