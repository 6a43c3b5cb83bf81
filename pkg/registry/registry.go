// Package registry maps action-type tags to their handlers. The map is
// validated at startup so adding an action type cannot silently fall through
// to a default branch.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/salesdeck/automation/pkg/models"
	"github.com/salesdeck/automation/pkg/protocol"
	"github.com/xeipuuv/gojsonschema"
)

// ErrUnknownActionType is wrapped into the error returned for unregistered
// tags. Dispatching an unknown tag is a hard failure, never a no-op.
var ErrUnknownActionType = errors.New("action type not registered")

type Registry struct {
	logger    *slog.Logger
	factories map[string]protocol.ActionFactory
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:    logger.With("module", "registry"),
		factories: make(map[string]protocol.ActionFactory),
	}
}

// Register adds a factory, compiling its config schema up front so schema
// mistakes surface at startup rather than on first dispatch.
func (r *Registry) Register(factory protocol.ActionFactory) error {
	id := factory.ID()
	if id == "" {
		return errors.New("action factory has an empty ID")
	}

	if _, exists := r.factories[id]; exists {
		return fmt.Errorf("action type %q registered twice", id)
	}

	if schema := factory.Schema(); schema != nil {
		if _, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema)); err != nil {
			return fmt.Errorf("invalid config schema for action type %q: %w", id, err)
		}
	}

	r.factories[id] = factory
	r.logger.Debug("Registered action type", "action_type", id)

	return nil
}

// ActionTypes lists the registered tags.
func (r *Registry) ActionTypes() []string {
	types := make([]string, 0, len(r.factories))
	for id := range r.factories {
		types = append(types, id)
	}

	return types
}

// Dispatch resolves the action type, validates the config against the
// factory schema, and executes the handler. The result object is the
// handler's to define.
func (r *Registry) Dispatch(ctx context.Context, actionType string, config map[string]any, trigger models.TriggerEvent) (map[string]any, error) {
	factory, ok := r.factories[actionType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownActionType, actionType)
	}

	if err := r.validateConfig(factory, config); err != nil {
		return nil, fmt.Errorf("invalid config for action type %q: %w", actionType, err)
	}

	action, err := factory.Create(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create action %q: %w", actionType, err)
	}

	return action.Execute(ctx, trigger)
}

func (r *Registry) validateConfig(factory protocol.ActionFactory, config map[string]any) error {
	schema := factory.Schema()
	if schema == nil {
		return nil
	}

	if config == nil {
		config = map[string]any{}
	}

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewGoLoader(config))
	if err != nil {
		return err
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}

		return errors.New(strings.Join(details, "; "))
	}

	return nil
}
