package mqenv

import (
	"log/slog"
	"time"
)

// This file catalogs the environment variables read by mongoquery.

const DefaultQueryTimeoutMS = 120_000

// MONGOQUERY_LOG_LEVEL, one of debug, info, warn, error
func MongoQueryLogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(getEnvString("MONGOQUERY_LOG_LEVEL", "info"))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// MONGOQUERY_QUERY_TIMEOUT_MS is the server-side time limit attached to find commands
func MongoQueryQueryTimeout() time.Duration {
	ms := getEnvInt("MONGOQUERY_QUERY_TIMEOUT_MS", DefaultQueryTimeoutMS)
	if ms <= 0 {
		ms = DefaultQueryTimeoutMS
	}
	return time.Duration(ms) * time.Millisecond
}

// MONGOQUERY_PRETTY
func MongoQueryPretty() bool {
	return getEnvBool("MONGOQUERY_PRETTY", true)
}
