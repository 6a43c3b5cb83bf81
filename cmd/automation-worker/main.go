package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/salesdeck/automation/pkg/cmd"
	"github.com/salesdeck/automation/pkg/crm"
	"github.com/salesdeck/automation/pkg/engine"
	"github.com/salesdeck/automation/pkg/listener"
	"github.com/salesdeck/automation/pkg/log"
	"github.com/salesdeck/automation/pkg/otelhelper"
	"github.com/salesdeck/automation/pkg/perf"
	"github.com/salesdeck/automation/pkg/registry"
	"github.com/salesdeck/automation/pkg/rules"
	"github.com/salesdeck/automation/pkg/sources/redisqueue"
	cli "github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "automation-worker"

func main() {
	command := &cli.Command{
		Name:                  serviceName,
		EnableShellCompletion: true,
		Usage:                 "Run the workflow automation engine: trigger listener plus execution queue",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL (postgres:// or file://)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (kafka, gochannel)",
				Value:   "kafka",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma-separated Kafka broker addresses",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:     "crm-url",
				Usage:    "Base URL of the CRM backend",
				Required: true,
				Sources:  cli.EnvVars("CRM_URL"),
			},
			&cli.StringFlag{
				Name:    "crm-api-key",
				Usage:   "API key for the CRM backend",
				Sources: cli.EnvVars("CRM_API_KEY"),
			},
			&cli.StringFlag{
				Name:    "redis-addr",
				Usage:   "Redis address for the change queue source (disabled when empty)",
				Sources: cli.EnvVars("REDIS_ADDR"),
			},
			&cli.StringFlag{
				Name:    "redis-queue",
				Usage:   "Redis list the CRM pushes change notifications onto",
				Value:   "crm:changes",
				Sources: cli.EnvVars("REDIS_QUEUE"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Enable OpenTelemetry tracing",
				Sources: cli.EnvVars("OTEL_ENABLED"),
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

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.InfoContext(ctx, "Initializing automation worker")

	var tracer trace.Tracer

	if command.Bool("tracing") {
		var err error

		tracer, err = otelhelper.NewTracer(ctx, serviceName)
		if err != nil {
			return err
		}
	}

	store, err := cmd.NewPersistence(ctx, command.String("database-url"), logger)
	if err != nil {
		return err
	}

	defer func() {
		if err := store.Close(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	bus, err := cmd.NewEventBus(command.String("event-bus"), command.String("kafka-brokers"), serviceName, logger)
	if err != nil {
		return err
	}

	defer func() {
		if err := bus.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
		}
	}()

	crmClient := crm.NewClient(command.String("crm-url"), command.String("crm-api-key"), logger)

	reg := registry.NewRegistry(logger)
	if err := registry.RegisterDefaults(reg, crmClient, crmClient); err != nil {
		return err
	}

	tracker := perf.NewTracker()
	ruleStore := rules.NewStore(store, logger)
	queue := engine.NewQueue(reg, store, tracker, tracer, logger)
	eng := engine.New(ruleStore, queue, store, tracker, tracer, logger)

	go queue.Start(ctx)

	if addr := command.String("redis-addr"); addr != "" {
		source := redisqueue.NewSource(redisqueue.Config{
			Addr:  addr,
			Queue: command.String("redis-queue"),
		}, bus, logger)

		if err := source.Start(ctx); err != nil {
			return err
		}

		defer func() {
			if err := source.Stop(ctx); err != nil {
				logger.ErrorContext(ctx, "Failed to stop queue source", "error", err)
			}
		}()
	}

	l := listener.New(bus, eng, logger)
	if err := l.Start(ctx); err != nil {
		return err
	}

	logger.InfoContext(ctx, "Automation worker started")

	<-ctx.Done()

	logger.Info("Shutting down automation worker")

	return nil
}
