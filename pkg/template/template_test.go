package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterpolate(t *testing.T) {
	tests := []struct {
		name     string
		template string
		data     map[string]any
		expected string
	}{
		{
			name:     "simple substitution",
			template: "Hello {{name}}",
			data:     map[string]any{"name": "Ada"},
			expected: "Hello Ada",
		},
		{
			name:     "unresolved token stays verbatim",
			template: "Hi {{missing}}",
			data:     map[string]any{"name": "Ada"},
			expected: "Hi {{missing}}",
		},
		{
			name:     "dotted path",
			template: "Deal {{deal.name}} moved to {{deal.stage}}",
			data: map[string]any{"deal": map[string]any{
				"name":  "Acme",
				"stage": "won",
			}},
			expected: "Deal Acme moved to won",
		},
		{
			name:     "integral float renders without decimal",
			template: "Value: {{deal.value}}",
			data:     map[string]any{"deal": map[string]any{"value": float64(15000)}},
			expected: "Value: 15000",
		},
		{
			name:     "fractional float keeps its decimals",
			template: "Rate: {{rate}}",
			data:     map[string]any{"rate": 0.25},
			expected: "Rate: 0.25",
		},
		{
			name:     "whitespace inside braces",
			template: "Hello {{ name }}",
			data:     map[string]any{"name": "Ada"},
			expected: "Hello Ada",
		},
		{
			name:     "mixed resolved and unresolved",
			template: "{{greeting}}, {{who}}!",
			data:     map[string]any{"greeting": "Hello"},
			expected: "Hello, {{who}}!",
		},
		{
			name:     "no tokens",
			template: "plain text",
			data:     map[string]any{"name": "Ada"},
			expected: "plain text",
		},
		{
			name:     "nil data leaves tokens",
			template: "Hello {{name}}",
			data:     nil,
			expected: "Hello {{name}}",
		},
		{
			name:     "non-string value stringified",
			template: "Active: {{active}}",
			data:     map[string]any{"active": true},
			expected: "Active: true",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Interpolate(tt.template, tt.data))
		})
	}
}

func TestInterpolateConfig(t *testing.T) {
	data := map[string]any{"record": map[string]any{"id": "d-1", "name": "Acme"}}

	config := map[string]any{
		"title":    "Follow up on {{record.name}}",
		"priority": 2,
		"nested":   map[string]any{"left": "{{record.id}}"},
	}

	rendered := InterpolateConfig(config, data)

	assert.Equal(t, "Follow up on Acme", rendered["title"])
	assert.Equal(t, 2, rendered["priority"])
	// Only top-level string values are interpolated.
	assert.Equal(t, map[string]any{"left": "{{record.id}}"}, rendered["nested"])

	// Original config untouched.
	assert.Equal(t, "Follow up on {{record.name}}", config["title"])

	assert.Nil(t, InterpolateConfig(nil, data))
}
