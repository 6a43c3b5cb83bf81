package registry

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/salesdeck/automation/pkg/mocks"
	"github.com/salesdeck/automation/pkg/models"
	"github.com/salesdeck/automation/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type stubFactory struct {
	id     string
	schema map[string]any
	action protocol.Action
	err    error
}

func (f *stubFactory) ID() string { return f.id }

func (f *stubFactory) Schema() map[string]any { return f.schema }

func (f *stubFactory) Create(_ map[string]any) (protocol.Action, error) {
	return f.action, f.err
}

type stubAction struct {
	results map[string]any
	err     error
}

func (a *stubAction) Execute(_ context.Context, _ models.TriggerEvent) (map[string]any, error) {
	return a.results, a.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func TestRegisterRejectsDuplicatesAndEmptyIDs(t *testing.T) {
	r := NewRegistry(testLogger())

	require.NoError(t, r.Register(&stubFactory{id: "noop"}))
	assert.Error(t, r.Register(&stubFactory{id: "noop"}))
	assert.Error(t, r.Register(&stubFactory{id: ""}))
}

func TestRegisterRejectsInvalidSchema(t *testing.T) {
	r := NewRegistry(testLogger())

	err := r.Register(&stubFactory{
		id:     "broken",
		schema: map[string]any{"type": 42},
	})
	assert.Error(t, err)
}

func TestDispatchUnknownActionType(t *testing.T) {
	r := NewRegistry(testLogger())

	_, err := r.Dispatch(context.Background(), "launch_rocket", nil, models.TriggerEvent{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownActionType)
	assert.Contains(t, err.Error(), "launch_rocket")
}

func TestDispatchExecutesAction(t *testing.T) {
	r := NewRegistry(testLogger())

	require.NoError(t, r.Register(&stubFactory{
		id:     "noop",
		action: &stubAction{results: map[string]any{"ok": true}},
	}))

	results, err := r.Dispatch(context.Background(), "noop", nil, models.TriggerEvent{})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"ok": true}, results)
}

func TestDispatchValidatesConfigAgainstSchema(t *testing.T) {
	r := NewRegistry(testLogger())

	require.NoError(t, r.Register(&stubFactory{
		id: "strict",
		schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"channel": map[string]any{"type": "string"},
			},
			"required": []any{"channel"},
		},
		action: &stubAction{},
	}))

	_, err := r.Dispatch(context.Background(), "strict", map[string]any{}, models.TriggerEvent{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel")

	_, err = r.Dispatch(context.Background(), "strict", map[string]any{"channel": "email"}, models.TriggerEvent{})
	assert.NoError(t, err)
}

func TestActionTypes(t *testing.T) {
	r := NewRegistry(testLogger())

	require.NoError(t, r.Register(&stubFactory{id: "a"}))
	require.NoError(t, r.Register(&stubFactory{id: "b"}))

	assert.ElementsMatch(t, []string{"a", "b"}, r.ActionTypes())
}

func TestRegisterDefaults(t *testing.T) {
	r := NewRegistry(testLogger())

	records := &mocks.MockRecordRepository{}
	sender := &mocks.MockMessageSender{}

	require.NoError(t, RegisterDefaults(r, records, sender))

	assert.ElementsMatch(t, []string{
		"create_record",
		"update_field",
		"send_message",
		"send_notification",
	}, r.ActionTypes())

	records.On("CreateRecord", mock.Anything, "task", map[string]any{"title": "hi"}).
		Return(map[string]any{"id": "task-1"}, nil)

	results, err := r.Dispatch(context.Background(), "create_record", map[string]any{
		"domain": "task",
		"title":  "hi",
	}, models.TriggerEvent{Payload: map[string]any{}})
	require.NoError(t, err)
	assert.Equal(t, true, results["created"])
}
