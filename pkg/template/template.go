// Package template substitutes {{dotted.path}} placeholders with values
// resolved from a data bag. It builds action parameters (task titles, message
// bodies) and materializes mock outputs during test runs.
package template

import (
	"fmt"
	"regexp"

	"github.com/salesdeck/automation/pkg/conditions"
)

var tokenPattern = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)*)\s*\}\}`)

// Interpolate replaces every {{identifier(.identifier)*}} token with the
// string form of the resolved path. Unresolved tokens are left verbatim,
// braces included; interpolation never fails.
func Interpolate(templateStr string, data map[string]any) string {
	return tokenPattern.ReplaceAllStringFunc(templateStr, func(token string) string {
		path := tokenPattern.FindStringSubmatch(token)[1]

		value, ok := conditions.Resolve(data, path)
		if !ok {
			return token
		}

		return stringify(value)
	})
}

// InterpolateConfig returns a copy of config with every string value
// interpolated against the data bag. Non-string values pass through untouched.
func InterpolateConfig(config, data map[string]any) map[string]any {
	if config == nil {
		return nil
	}

	rendered := make(map[string]any, len(config))

	for key, value := range config {
		if s, ok := value.(string); ok {
			rendered[key] = Interpolate(s, data)

			continue
		}

		rendered[key] = value
	}

	return rendered
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		// Render integral floats without the trailing ".0" JSON decoding
		// introduces.
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}

		return fmt.Sprintf("%v", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
