package protocol

import "context"

// RecordRepository is the CRM entity store (deals, contacts, companies,
// tasks). Owned by the surrounding application; the engine only calls through
// it.
type RecordRepository interface {
	CreateRecord(ctx context.Context, domain string, fields map[string]any) (map[string]any, error)
	UpdateRecordField(ctx context.Context, domain, recordID, field string, value any) error
}

// MessageSender delivers outbound messages and in-app notifications.
type MessageSender interface {
	SendMessage(ctx context.Context, channel, recipient, body string) error
	SendNotification(ctx context.Context, userID, title, body string) error
}
