package odata

import (
	"log/slog"
	"regexp"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// FunctionHandler turns a function call into a filter fragment. A nil or
// empty result means the call contributes nothing to the filter.
type FunctionHandler func(name string, args []*Node) bson.M

var (
	functionsMu sync.RWMutex
	functions   map[string]FunctionHandler
)

// function names the grammar recognises but that have no filter rendering
var unimplementedFunctions = []string{
	"length", "indexof", "replace", "substring", "tolower", "toupper", "trim", "concat",
	"year", "month", "day", "hour", "minute", "second",
	"round", "floor", "ceiling", "isof", "cast",
}

func init() {
	functions = map[string]FunctionHandler{
		"substringof": substringOf,
		"startswith":  startsWith,
		"endswith":    endsWith,
	}
	for _, name := range unimplementedFunctions {
		functions[name] = NotImplemented
	}
}

// Register installs or replaces the handler for a function name.
func Register(name string, handler FunctionHandler) {
	functionsMu.Lock()
	defer functionsMu.Unlock()
	functions[name] = handler
}

// Lookup returns the handler for name, falling back to NotImplemented.
func Lookup(name string) FunctionHandler {
	functionsMu.RLock()
	defer functionsMu.RUnlock()
	if handler, ok := functions[name]; ok {
		return handler
	}
	return NotImplemented
}

func NotImplemented(name string, args []*Node) bson.M {
	slog.Debug("filter function not implemented", slog.String("function", name), slog.Int("args", len(args)))
	return nil
}

// propertyAndString picks the member path and string literal out of a
// two-argument call, in either order.
func propertyAndString(args []*Node) (string, string, bool) {
	if len(args) != 2 {
		return "", "", false
	}
	for _, pair := range [][2]*Node{{args[0], args[1]}, {args[1], args[0]}} {
		prop, lit := pair[0], pair[1]
		if !prop.isProperty() || !lit.isLiteral() {
			continue
		}
		if s, ok := lit.Value.(string); ok {
			return memberPath(prop.Name), s, true
		}
	}
	return "", "", false
}

func regexFragment(args []*Node, prefix string, suffix string) bson.M {
	path, s, ok := propertyAndString(args)
	if !ok {
		return nil
	}
	return bson.M{path: bson.Regex{Pattern: prefix + regexp.QuoteMeta(s) + suffix}}
}

// substringof('text', Member) matches when Member contains text.
func substringOf(_ string, args []*Node) bson.M {
	return regexFragment(args, "", "")
}

func startsWith(_ string, args []*Node) bson.M {
	return regexFragment(args, "^", "")
}

func endsWith(_ string, args []*Node) bson.M {
	return regexFragment(args, "", "$")
}
