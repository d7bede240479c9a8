package mqenv

import (
	"os"
	"strings"

	"github.com/spf13/cast"
)

// lookupEnv treats a blank variable as unset.
func lookupEnv(name string) (string, bool) {
	val, ok := os.LookupEnv(name)
	val = strings.TrimSpace(val)
	return val, ok && val != ""
}

// envOr parses the variable with parse, falling back to defaultValue when it
// is unset or does not parse.
func envOr[T any](name string, defaultValue T, parse func(any) (T, error)) T {
	val, ok := lookupEnv(name)
	if !ok {
		return defaultValue
	}
	parsed, err := parse(val)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvInt(name string, defaultValue int) int {
	return envOr(name, defaultValue, cast.ToIntE)
}

func getEnvBool(name string, defaultValue bool) bool {
	return envOr(name, defaultValue, cast.ToBoolE)
}

func getEnvString(name string, defaultValue string) string {
	return envOr(name, defaultValue, cast.ToStringE)
}
