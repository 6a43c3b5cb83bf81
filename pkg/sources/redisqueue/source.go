// Package redisqueue consumes CRM change notifications from a Redis list
// and republishes them as normalized events on the bus.
package redisqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/salesdeck/automation/pkg/eventbus"
	"github.com/salesdeck/automation/pkg/events"
)

const defaultQueue = "crm:changes"

// message is the wire shape the CRM pushes onto the list.
type message struct {
	Type     string         `json:"type"`
	OwnerID  string         `json:"owner_id"`
	Domain   string         `json:"domain"`
	Record   map[string]any `json:"record"`
	Previous map[string]any `json:"previous,omitempty"`
}

type Source struct {
	queue     string
	client    redis.UniversalClient
	publisher eventbus.EventPublisher
	logger    *slog.Logger
	stopCh    chan struct{}
	wg        sync.WaitGroup
}

type Config struct {
	Addr     string
	Password string
	DB       int
	Queue    string
}

func NewSource(config Config, publisher eventbus.EventPublisher, logger *slog.Logger) *Source {
	if config.Addr == "" {
		config.Addr = "localhost:6379"
	}

	if config.Queue == "" {
		config.Queue = defaultQueue
	}

	return &Source{
		queue: config.Queue,
		client: redis.NewClient(&redis.Options{
			Addr:     config.Addr,
			Password: config.Password,
			DB:       config.DB,
		}),
		publisher: publisher,
		stopCh:    make(chan struct{}),
		logger: logger.With(
			"module", "redisqueue_source",
			"queue", config.Queue,
		),
	}
}

func (s *Source) Start(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	s.logger.InfoContext(ctx, "Starting queue consumer")

	s.wg.Add(1)

	go s.consume(ctx)

	return nil
}

func (s *Source) consume(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-s.stopCh:
			s.logger.InfoContext(ctx, "Queue consumer stopped")

			return
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "Context cancelled, stopping queue consumer")

			return
		default:
			if err := s.processMessage(ctx); err != nil {
				s.logger.ErrorContext(ctx, "Error processing queue message", "error", err)
				time.Sleep(1 * time.Second)
			}
		}
	}
}

func (s *Source) processMessage(ctx context.Context) error {
	result, err := s.client.BLPop(ctx, 1*time.Second, s.queue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
			return nil
		}

		return fmt.Errorf("failed to pop message from queue: %w", err)
	}

	if len(result) < 2 {
		return nil
	}

	var msg message
	if err := json.Unmarshal([]byte(result[1]), &msg); err != nil {
		return fmt.Errorf("failed to decode queue message: %w", err)
	}

	event, err := s.toEvent(msg)
	if err != nil {
		return err
	}

	return s.publisher.Publish(ctx, msg.OwnerID, event)
}

func (s *Source) toEvent(msg message) (eventbus.Event, error) {
	switch events.EventType(msg.Type) {
	case events.RecordCreatedEvent:
		return events.RecordCreated{
			BaseEvent: events.NewBaseEvent(events.RecordCreatedEvent, msg.OwnerID),
			Domain:    msg.Domain,
			Record:    msg.Record,
		}, nil
	case events.RecordUpdatedEvent:
		return events.RecordUpdated{
			BaseEvent: events.NewBaseEvent(events.RecordUpdatedEvent, msg.OwnerID),
			Domain:    msg.Domain,
			Record:    msg.Record,
			Previous:  msg.Previous,
		}, nil
	default:
		return nil, fmt.Errorf("unknown queue message type: %q", msg.Type)
	}
}

func (s *Source) Stop(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Stopping queue consumer")

	close(s.stopCh)
	s.wg.Wait()

	if err := s.client.Close(); err != nil {
		s.logger.ErrorContext(ctx, "Error closing Redis client", "error", err)
	}

	return nil
}
