package redisqueue

import (
	"log/slog"
	"os"
	"testing"

	"github.com/salesdeck/automation/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSource() *Source {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	return NewSource(Config{}, nil, logger)
}

func TestToEventRecordCreated(t *testing.T) {
	source := newTestSource()

	event, err := source.toEvent(message{
		Type:    "record.created",
		OwnerID: "user-1",
		Domain:  "deal",
		Record:  map[string]any{"id": "deal-1"},
	})
	require.NoError(t, err)

	created, ok := event.(events.RecordCreated)
	require.True(t, ok)

	assert.Equal(t, events.RecordCreatedEvent, created.GetType())
	assert.Equal(t, "user-1", created.OwnerID)
	assert.Equal(t, "deal", created.Domain)
	assert.NotEmpty(t, created.ID)
}

func TestToEventRecordUpdatedCarriesPrevious(t *testing.T) {
	source := newTestSource()

	event, err := source.toEvent(message{
		Type:     "record.updated",
		OwnerID:  "user-1",
		Domain:   "deal",
		Record:   map[string]any{"stage": "won"},
		Previous: map[string]any{"stage": "open"},
	})
	require.NoError(t, err)

	updated, ok := event.(events.RecordUpdated)
	require.True(t, ok)

	assert.Equal(t, "open", updated.Previous["stage"])
	assert.Equal(t, "won", updated.Record["stage"])
}

func TestToEventUnknownType(t *testing.T) {
	source := newTestSource()

	_, err := source.toEvent(message{Type: "record.deleted", OwnerID: "user-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record.deleted")
}

func TestNewSourceDefaults(t *testing.T) {
	source := newTestSource()

	assert.Equal(t, defaultQueue, source.queue)
}
