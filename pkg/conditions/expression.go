package conditions

import (
	"strconv"
	"strings"

	"github.com/salesdeck/automation/pkg/models"
)

// EvaluateExpression evaluates a legacy raw condition string of the form
// "field operator value" (e.g. "deal.value > 10000", "stage == Won"). Older
// graph definitions still carry these; malformed expressions fail closed.
func EvaluateExpression(expression string, data map[string]any) bool {
	field, op, literal, ok := splitExpression(expression)
	if !ok {
		return false
	}

	tree := models.ConditionTree{field: map[string]any{op: parseLiteral(literal)}}

	return Evaluate(tree, data)
}

var expressionOperators = map[string]string{
	"==":       models.OpEq,
	"=":        models.OpEq,
	"!=":       models.OpNe,
	">":        models.OpGt,
	">=":       models.OpGte,
	"<":        models.OpLt,
	"<=":       models.OpLte,
	"contains": models.OpContains,
}

func splitExpression(expression string) (field, op, literal string, ok bool) {
	parts := strings.Fields(strings.TrimSpace(expression))
	if len(parts) < 3 {
		return "", "", "", false
	}

	mapped, known := expressionOperators[parts[1]]
	if !known {
		return "", "", "", false
	}

	return parts[0], mapped, strings.Join(parts[2:], " "), true
}

func parseLiteral(literal string) any {
	literal = strings.Trim(literal, `"'`)

	if f, err := strconv.ParseFloat(literal, 64); err == nil {
		return f
	}

	if b, err := strconv.ParseBool(literal); err == nil {
		return b
	}

	return literal
}
