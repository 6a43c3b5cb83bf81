// Package updatefield implements the update_field action: it writes one
// field of an existing CRM record.
package updatefield

import (
	"context"
	"errors"
	"fmt"

	"github.com/salesdeck/automation/pkg/models"
	"github.com/salesdeck/automation/pkg/protocol"
	"github.com/salesdeck/automation/pkg/template"
)

type Factory struct {
	records protocol.RecordRepository
}

func NewFactory(records protocol.RecordRepository) *Factory {
	return &Factory{records: records}
}

func (*Factory) ID() string {
	return "update_field"
}

func (*Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"domain":    map[string]any{"type": "string"},
			"record_id": map[string]any{"type": "string", "description": "Record to update; templated, defaults to {{record.id}}"},
			"field":     map[string]any{"type": "string"},
			"value":     map[string]any{"description": "New value; strings are templated"},
		},
		"required": []any{"domain", "field"},
	}
}

func (f *Factory) Create(config map[string]any) (protocol.Action, error) {
	domain, _ := config["domain"].(string)
	field, _ := config["field"].(string)

	if domain == "" || field == "" {
		return nil, errors.New("update_field requires 'domain' and 'field' config keys")
	}

	recordID, _ := config["record_id"].(string)
	if recordID == "" {
		recordID = "{{record.id}}"
	}

	return &Action{
		records:  f.records,
		domain:   domain,
		recordID: recordID,
		field:    field,
		value:    config["value"],
	}, nil
}

type Action struct {
	records  protocol.RecordRepository
	domain   string
	recordID string
	field    string
	value    any
}

func (a *Action) Execute(ctx context.Context, trigger models.TriggerEvent) (map[string]any, error) {
	recordID := template.Interpolate(a.recordID, trigger.Payload)

	value := a.value
	if s, ok := value.(string); ok {
		value = template.Interpolate(s, trigger.Payload)
	}

	if err := a.records.UpdateRecordField(ctx, a.domain, recordID, a.field, value); err != nil {
		return nil, fmt.Errorf("failed to update field %s on %s %s: %w", a.field, a.domain, recordID, err)
	}

	return map[string]any{
		"updated":   true,
		"record_id": recordID,
		"field":     a.field,
		"value":     value,
	}, nil
}
