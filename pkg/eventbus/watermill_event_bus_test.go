package eventbus_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/salesdeck/automation/pkg/channels/gochannel"
	"github.com/salesdeck/automation/pkg/eventbus"
	"github.com/salesdeck/automation/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBus(t *testing.T) *eventbus.WatermillEventBus {
	t.Helper()

	logger := watermill.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	pub, sub, err := gochannel.CreateTestChannel(logger)
	require.NoError(t, err)

	return eventbus.NewWatermillEventBus(pub, sub)
}

func TestPublishAndHandleRoundTrip(t *testing.T) {
	bus := newTestBus(t)

	received := make(chan *events.RecordCreated, 1)

	err := bus.Handle(events.RecordCreatedEvent, func(_ context.Context, event any) error {
		created, ok := event.(*events.RecordCreated)
		require.True(t, ok)

		received <- created

		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	event := events.RecordCreated{
		BaseEvent: events.NewBaseEvent(events.RecordCreatedEvent, "user-1"),
		Domain:    "deal",
		Record:    map[string]any{"id": "deal-1"},
	}

	require.NoError(t, bus.Publish(ctx, "user-1", event))

	select {
	case created := <-received:
		assert.Equal(t, "user-1", created.OwnerID)
		assert.Equal(t, "deal", created.Domain)
		assert.Equal(t, "deal-1", created.Record["id"])
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestEventsWithoutHandlerAreAcked(t *testing.T) {
	bus := newTestBus(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	// No handler for schedule.due: the message must be acked, not redelivered,
	// and the publish must not block.
	event := events.ScheduleDue{
		BaseEvent: events.NewBaseEvent(events.ScheduleDueEvent, "user-1"),
		RuleID:    "rule-1",
	}

	require.NoError(t, bus.Publish(ctx, "user-1", event))
}

func TestGenerateID(t *testing.T) {
	bus := newTestBus(t)

	first := bus.GenerateID()
	second := bus.GenerateID()

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}
