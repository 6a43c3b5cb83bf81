// Package models defines the core data types shared by the automation engine:
// workflow rules, trigger events, execution records and test graphs.
package models

import "time"

// WorkflowRule is a user-configured trigger/condition/action rule. Rules are
// created and edited by the surrounding CRM application; the engine only ever
// reads them.
type WorkflowRule struct {
	ID                string         `json:"id"`
	OwnerID           string         `json:"owner_id"           validate:"required"`
	Name              string         `json:"name"               validate:"required,min=3"`
	TriggerType       string         `json:"trigger_type"       validate:"required"`
	TriggerConditions ConditionTree  `json:"trigger_conditions,omitempty"`
	ActionType        string         `json:"action_type"        validate:"required"`
	ActionConfig      map[string]any `json:"action_config,omitempty"`
	IsActive          bool           `json:"is_active"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}
