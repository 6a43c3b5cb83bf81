// Package createrecord implements the create_record action: it creates one
// CRM record (typically a follow-up task) with templated field values.
package createrecord

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
	return "create_record"
}

func (*Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"domain": map[string]any{
				"type":        "string",
				"description": "CRM domain to create the record in (deal, contact, company, task)",
			},
		},
		"required": []any{"domain"},
	}
}

func (f *Factory) Create(config map[string]any) (protocol.Action, error) {
	domain, _ := config["domain"].(string)
	if domain == "" {
		return nil, errors.New("create_record requires a 'domain' config key")
	}

	fields := make(map[string]any, len(config))

	for key, value := range config {
		if key == "domain" {
			continue
		}

		fields[key] = value
	}

	return &Action{records: f.records, domain: domain, fields: fields}, nil
}

type Action struct {
	records protocol.RecordRepository
	domain  string
	fields  map[string]any
}

// Execute interpolates the configured field templates against the trigger
// payload and creates the record.
func (a *Action) Execute(ctx context.Context, trigger models.TriggerEvent) (map[string]any, error) {
	fields := template.InterpolateConfig(a.fields, trigger.Payload)

	record, err := a.records.CreateRecord(ctx, a.domain, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s record: %w", a.domain, err)
	}

	result := map[string]any{
		"created": true,
		"domain":  a.domain,
	}

	if id, ok := record["id"]; ok {
		result["record_id"] = id
	}

	return result, nil
}
