// Package protocol defines the interfaces between the engine and its
// pluggable parts: actions and the external CRM collaborators they act
// through.
package protocol

import (
	"context"

	"github.com/salesdeck/automation/pkg/models"
)

// Action performs exactly one external side effect and returns a small result
// object that is merged into the execution record.
type Action interface {
	Execute(ctx context.Context, trigger models.TriggerEvent) (map[string]any, error)
}

// ActionFactory builds actions of one type from a flat string-keyed config
// map. Unrecognized config keys are ignored; missing required keys fail the
// factory or the handler.
type ActionFactory interface {
	// ID returns the action-type tag rules reference ("create_record", ...).
	ID() string

	// Schema returns the JSON schema the registry validates configs against.
	Schema() map[string]any

	Create(config map[string]any) (Action, error)
}
