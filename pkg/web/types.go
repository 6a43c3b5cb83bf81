// Package web provides the HTTP surface: rule management, execution history
// and sandbox test runs.
package web

import "github.com/salesdeck/automation/pkg/models"

// SaveRuleRequest is the request body for creating or updating a workflow
// rule. An empty ID creates a new rule.
type SaveRuleRequest struct {
	ID                string               `json:"id,omitempty"`
	OwnerID           string               `json:"owner_id"           validate:"required"`
	Name              string               `json:"name"               validate:"required,min=3"`
	TriggerType       string               `json:"trigger_type"       validate:"required"`
	TriggerConditions models.ConditionTree `json:"trigger_conditions"`
	ActionType        string               `json:"action_type"        validate:"required"`
	ActionConfig      map[string]any       `json:"action_config"`
	IsActive          bool                 `json:"is_active"`
}

func (r SaveRuleRequest) toRule() *models.WorkflowRule {
	return &models.WorkflowRule{
		ID:                r.ID,
		OwnerID:           r.OwnerID,
		Name:              r.Name,
		TriggerType:       r.TriggerType,
		TriggerConditions: r.TriggerConditions,
		ActionType:        r.ActionType,
		ActionConfig:      r.ActionConfig,
		IsActive:          r.IsActive,
	}
}

// TestRunRequest carries a workflow graph plus the seed data bag for a
// sandbox run. Actions are mocked; nothing touches the CRM.
type TestRunRequest struct {
	Graph models.Graph   `json:"graph"`
	Data  map[string]any `json:"data"`
}
