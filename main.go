package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "go.uber.org/automaxprocs"

	"github.com/PeerDB-io/mongoquery/cmd"
	"github.com/PeerDB-io/mongoquery/logger"
	"github.com/PeerDB-io/mongoquery/mqenv"
)

func main() {
	appCtx, appClose := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer appClose()

	slog.SetDefault(slog.New(logger.NewHandler(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: mqenv.MongoQueryLogLevel(),
	}))))

	if err := cmd.NewApp(os.Stdout).Run(appCtx, os.Args); err != nil {
		slog.Error("error running app", slog.Any("error", err))
		appClose()
		os.Exit(1)
	}
}
