package models

// ConditionTree maps a dot-notation field path to either a literal value
// (strict equality) or an operator object keyed by the Op* constants. An empty
// or nil tree evaluates to true.
type ConditionTree map[string]any

// Condition operators. Every operator present in an operator object must pass
// for the field to pass.
const (
	OpEq       = "$eq"
	OpNe       = "$ne"
	OpGt       = "$gt"
	OpGte      = "$gte"
	OpLt       = "$lt"
	OpLte      = "$lte"
	OpIn       = "$in"
	OpContains = "$contains"
)

// IsOperatorObject reports whether a condition value is an operator object
// rather than a literal. A map qualifies only when every key is a known
// operator; anything else is compared literally.
func IsOperatorObject(value any) (map[string]any, bool) {
	object, ok := value.(map[string]any)
	if !ok || len(object) == 0 {
		return nil, false
	}

	for key := range object {
		switch key {
		case OpEq, OpNe, OpGt, OpGte, OpLt, OpLte, OpIn, OpContains:
		default:
			return nil, false
		}
	}

	return object, true
}
