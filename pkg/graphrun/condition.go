package graphrun

import (
	"github.com/salesdeck/automation/pkg/conditions"
	"github.com/salesdeck/automation/pkg/models"
)

// evaluateNodeCondition supports the generic condition tree, legacy raw
// "field operator value" strings, and a handful of named condition kinds.
// No condition config at all is an unconditional pass; anything malformed
// fails closed.
func evaluateNodeCondition(nodeData, data map[string]any) bool {
	if nodeData == nil {
		return true
	}

	if raw, ok := nodeData["conditions"]; ok {
		return evaluateTreeValue(raw, data)
	}

	if raw, ok := nodeData["condition"]; ok {
		switch v := raw.(type) {
		case string:
			return conditions.EvaluateExpression(v, data)
		case map[string]any:
			return conditions.Evaluate(models.ConditionTree(v), data)
		default:
			return false
		}
	}

	if expression, ok := nodeData["expression"].(string); ok {
		return conditions.EvaluateExpression(expression, data)
	}

	if kind, ok := nodeData["kind"].(string); ok {
		return evaluateNamedCondition(kind, nodeData, data)
	}

	return true
}

func evaluateTreeValue(raw any, data map[string]any) bool {
	tree, ok := raw.(map[string]any)
	if !ok {
		return false
	}

	return conditions.Evaluate(models.ConditionTree(tree), data)
}

func evaluateNamedCondition(kind string, nodeData, data map[string]any) bool {
	switch kind {
	case "value_threshold":
		field, _ := nodeData["field"].(string)
		if field == "" {
			field = "record.value"
		}

		value, _ := conditions.Resolve(data, field)

		left, ok := conditions.ToFloat(value)
		if !ok {
			return false
		}

		threshold, ok := conditions.ToFloat(nodeData["threshold"])
		if !ok {
			return false
		}

		return left > threshold

	case "stage_equals":
		stage, _ := nodeData["stage"].(string)
		value, _ := conditions.Resolve(data, "record.stage")

		current, ok := value.(string)

		return ok && stage != "" && current == stage

	case "field_equals":
		field, _ := nodeData["field"].(string)
		if field == "" {
			return false
		}

		return conditions.Evaluate(models.ConditionTree{field: nodeData["value"]}, data)

	default:
		return false
	}
}
