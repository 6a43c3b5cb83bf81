package graphrun

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/salesdeck/automation/pkg/models"
	"github.com/salesdeck/automation/pkg/template"
)

// executeMockAction mirrors the live action set without side effects. It may
// mutate the run's test-data bag (simulated field updates) so downstream
// nodes see updated values.
func (r *Runner) executeMockAction(rc *runContext, node models.GraphNode) (map[string]any, error) {
	actionType, _ := node.Data["action_type"].(string)

	config, _ := node.Data["config"].(map[string]any)
	rendered := template.InterpolateConfig(config, rc.data)

	switch actionType {
	case "create_record":
		return mockCreateRecord(rc, rendered)
	case "update_field":
		return mockUpdateField(rc, rendered)
	case "send_message":
		return mockSendMessage(rendered)
	case "send_notification":
		return mockSendNotification(rendered)
	case "":
		return nil, errors.New("action node is missing 'action_type'")
	default:
		// Unknown types execute as inert pass-throughs in test mode so a
		// graph can be sketched before every action exists.
		return map[string]any{"executed": true, "action_type": actionType}, nil
	}
}

func mockCreateRecord(rc *runContext, config map[string]any) (map[string]any, error) {
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

	recordID := "test-" + uuid.New().String()[:8]

	created := map[string]any{"id": recordID, "domain": domain}
	for key, value := range fields {
		created[key] = value
	}

	rc.data["created_record"] = created

	return map[string]any{
		"created":   true,
		"record_id": recordID,
		"domain":    domain,
		"fields":    fields,
	}, nil
}

func mockUpdateField(rc *runContext, config map[string]any) (map[string]any, error) {
	field, _ := config["field"].(string)
	if field == "" {
		return nil, errors.New("update_field requires a 'field' config key")
	}

	value := config["value"]

	// Simulated write: downstream nodes observe the new value.
	if record, ok := rc.data["record"].(map[string]any); ok {
		record[field] = value
	}

	return map[string]any{
		"updated": true,
		"field":   field,
		"value":   value,
	}, nil
}

func mockSendMessage(config map[string]any) (map[string]any, error) {
	body, _ := config["body"].(string)
	if body == "" {
		return nil, errors.New("send_message requires a 'body' config key")
	}

	channel, _ := config["channel"].(string)
	if channel == "" {
		channel = "email"
	}

	recipient, _ := config["recipient"].(string)

	return map[string]any{
		"sent":      true,
		"channel":   channel,
		"recipient": recipient,
		"preview":   truncate(body, 120),
	}, nil
}

func mockSendNotification(config map[string]any) (map[string]any, error) {
	title, _ := config["title"].(string)
	if title == "" {
		return nil, errors.New("send_notification requires a 'title' config key")
	}

	userID, _ := config["user_id"].(string)

	return map[string]any{
		"notified": true,
		"user_id":  userID,
		"title":    title,
	}, nil
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}

	return fmt.Sprintf("%s...", s[:limit])
}
