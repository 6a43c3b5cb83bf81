// Package mocks provides testify mocks for the CRM collaborator interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockRecordRepository is a mock implementation of protocol.RecordRepository.
type MockRecordRepository struct {
	mock.Mock
}

func (m *MockRecordRepository) CreateRecord(ctx context.Context, domain string, fields map[string]any) (map[string]any, error) {
	args := m.Called(ctx, domain, fields)

	record, _ := args.Get(0).(map[string]any)

	return record, args.Error(1)
}

func (m *MockRecordRepository) UpdateRecordField(ctx context.Context, domain, recordID, field string, value any) error {
	args := m.Called(ctx, domain, recordID, field, value)

	return args.Error(0)
}

// MockMessageSender is a mock implementation of protocol.MessageSender.
type MockMessageSender struct {
	mock.Mock
}

func (m *MockMessageSender) SendMessage(ctx context.Context, channel, recipient, body string) error {
	args := m.Called(ctx, channel, recipient, body)

	return args.Error(0)
}

func (m *MockMessageSender) SendNotification(ctx context.Context, userID, title, body string) error {
	args := m.Called(ctx, userID, title, body)

	return args.Error(0)
}
