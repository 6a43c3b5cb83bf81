package kafka

import (
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
)

func TestCreateChannelRejectsBadConfig(t *testing.T) {
	logger := watermill.NopLogger{}

	tests := []struct {
		name   string
		config Config
	}{
		{"no brokers", Config{ConsumerGroup: "cg-worker"}},
		{"empty broker entry", Config{Brokers: []string{""}, ConsumerGroup: "cg-worker"}},
		{"no consumer group", Config{Brokers: []string{"localhost:9092"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := CreateChannel(logger, tt.config)
			assert.Error(t, err)
		})
	}
}
