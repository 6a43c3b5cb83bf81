// Package sendmessage implements the send_message action: it delivers a
// templated message through the configured outbound channel (email, chat).
package sendmessage

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
	return "send_message"
}

func (*Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"channel":   map[string]any{"type": "string", "enum": []any{"email", "chat"}},
			"recipient": map[string]any{"type": "string"},
			"body":      map[string]any{"type": "string", "description": "Message body; supports {{dotted.path}} templating"},
		},
		"required": []any{"channel", "recipient", "body"},
	}
}

func (f *Factory) Create(config map[string]any) (protocol.Action, error) {
	channel, _ := config["channel"].(string)
	recipient, _ := config["recipient"].(string)
	body, _ := config["body"].(string)

	if channel == "" || recipient == "" || body == "" {
		return nil, errors.New("send_message requires 'channel', 'recipient' and 'body' config keys")
	}

	return &Action{sender: f.sender, channel: channel, recipient: recipient, body: body}, nil
}

type Action struct {
	sender    protocol.MessageSender
	channel   string
	recipient string
	body      string
}

func (a *Action) Execute(ctx context.Context, trigger models.TriggerEvent) (map[string]any, error) {
	recipient := template.Interpolate(a.recipient, trigger.Payload)
	body := template.Interpolate(a.body, trigger.Payload)

	if err := a.sender.SendMessage(ctx, a.channel, recipient, body); err != nil {
		return nil, fmt.Errorf("failed to send %s message to %s: %w", a.channel, recipient, err)
	}

	return map[string]any{
		"sent":      true,
		"channel":   a.channel,
		"recipient": recipient,
	}, nil
}
