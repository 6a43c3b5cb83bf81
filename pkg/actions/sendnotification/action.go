// Package sendnotification implements the send_notification action: an
// in-app notification to a CRM user.
package sendnotification

import (
	"context"
	"errors"
	"fmt"

	"github.com/salesdeck/automation/pkg/models"
	"github.com/salesdeck/automation/pkg/protocol"
	"github.com/salesdeck/automation/pkg/template"
)

type Factory struct {
	sender protocol.MessageSender
}

func NewFactory(sender protocol.MessageSender) *Factory {
	return &Factory{sender: sender}
}

func (*Factory) ID() string {
	return "send_notification"
}

func (*Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"user_id": map[string]any{"type": "string"},
			"title":   map[string]any{"type": "string"},
			"body":    map[string]any{"type": "string"},
		},
		"required": []any{"user_id", "title"},
	}
}

func (f *Factory) Create(config map[string]any) (protocol.Action, error) {
	userID, _ := config["user_id"].(string)
	title, _ := config["title"].(string)

	if userID == "" || title == "" {
		return nil, errors.New("send_notification requires 'user_id' and 'title' config keys")
	}

	body, _ := config["body"].(string)

	return &Action{sender: f.sender, userID: userID, title: title, body: body}, nil
}

type Action struct {
	sender protocol.MessageSender
	userID string
	title  string
	body   string
}

func (a *Action) Execute(ctx context.Context, trigger models.TriggerEvent) (map[string]any, error) {
	userID := template.Interpolate(a.userID, trigger.Payload)
	title := template.Interpolate(a.title, trigger.Payload)
	body := template.Interpolate(a.body, trigger.Payload)

	if err := a.sender.SendNotification(ctx, userID, title, body); err != nil {
		return nil, fmt.Errorf("failed to notify user %s: %w", userID, err)
	}

	return map[string]any{
		"notified": true,
		"user_id":  userID,
		"title":    title,
	}, nil
}
