package main

import (
	"context"
	"os"

	"github.com/salesdeck/automation/pkg/cmd"
	"github.com/salesdeck/automation/pkg/engine"
	"github.com/salesdeck/automation/pkg/log"
	"github.com/salesdeck/automation/pkg/perf"
	"github.com/salesdeck/automation/pkg/registry"
	"github.com/salesdeck/automation/pkg/rules"
	cli "github.com/urfave/cli/v3"
)

const serviceName = "automation-api"

func main() {
	command := &cli.Command{
		Name:                  serviceName,
		EnableShellCompletion: true,
		Usage:                 "Serve the rule management and execution history API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL (postgres:// or file://)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.IntFlag{
				Name:    "port",
				Usage:   "HTTP port to listen on",
				Value:   8080,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log format (text, json)",
				Value:   "json",
				Sources: cli.EnvVars("LOG_FORMAT"),
			},
		},
		Action: run,
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}

func run(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"), command.String("log-format"))

	logger := log.WithModule(serviceName)

	logger.InfoContext(ctx, "Initializing automation API")

	store, err := cmd.NewPersistence(ctx, command.String("database-url"), logger)
	if err != nil {
		return err
	}

	defer func() {
		if err := store.Close(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	// The API never dispatches actions; the registry stays empty and the
	// queue is never started. The engine is only here so rule edits can
	// invalidate the cache.
	tracker := perf.NewTracker()
	ruleStore := rules.NewStore(store, logger)
	queue := engine.NewQueue(registry.NewRegistry(logger), store, tracker, nil, logger)
	eng := engine.New(ruleStore, queue, store, tracker, nil, logger)

	api := NewAPI(logger, store, eng, tracker)

	logger.InfoContext(ctx, "Starting HTTP server", "port", command.Int("port"))

	return api.Start(command.Int("port"))
}
