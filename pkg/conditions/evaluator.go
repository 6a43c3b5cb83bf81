// Package conditions evaluates declarative condition trees against trigger
// payloads. Evaluation is fail-closed: malformed operator objects and unresolvable paths
// never raise, they compare as undefined and the field fails.
package conditions

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/salesdeck/automation/pkg/models"
)

// Evaluate checks every field of the tree against the data bag. An empty or
// nil tree is unconditionally true. Each field must pass; within an operator
// object every present operator must pass.
func Evaluate(tree models.ConditionTree, data map[string]any) bool {
	if len(tree) == 0 {
		return true
	}

	for path, spec := range tree {
		value, _ := Resolve(data, path)

		object, ok := models.IsOperatorObject(spec)
		if !ok {
			if !looseEqual(value, spec) {
				return false
			}

			continue
		}

		for op, operand := range object {
			if !evaluateOperator(op, value, operand) {
				return false
			}
		}
	}

	return true
}

// Resolve walks a dot-notation path through nested maps. Missing intermediate
// keys resolve to (nil, false) rather than panicking.
func Resolve(data map[string]any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}

	var current any = data

	for _, segment := range strings.Split(path, ".") {
		bag, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}

		current, ok = bag[segment]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

func evaluateOperator(op string, value, operand any) bool {
	switch op {
	case models.OpEq:
		return looseEqual(value, operand)
	case models.OpNe:
		return !looseEqual(value, operand)
	case models.OpGt, models.OpGte, models.OpLt, models.OpLte:
		return compareNumeric(op, value, operand)
	case models.OpIn:
		return evaluateIn(value, operand)
	case models.OpContains:
		return evaluateContains(value, operand)
	default:
		return false
	}
}

func compareNumeric(op string, value, operand any) bool {
	left, ok := ToFloat(value)
	if !ok {
		return false
	}

	right, ok := ToFloat(operand)
	if !ok {
		return false
	}

	switch op {
	case models.OpGt:
		return left > right
	case models.OpGte:
		return left >= right
	case models.OpLt:
		return left < right
	case models.OpLte:
		return left <= right
	}

	return false
}

// evaluateIn checks membership of the resolved value in a literal list.
func evaluateIn(value, operand any) bool {
	list, ok := operand.([]any)
	if !ok {
		return false
	}

	for _, item := range list {
		if looseEqual(value, item) {
			return true
		}
	}

	return false
}

// evaluateContains checks a substring on strings and membership on slices.
func evaluateContains(value, operand any) bool {
	switch v := value.(type) {
	case string:
		needle, ok := operand.(string)
		if !ok {
			return false
		}

		return strings.Contains(v, needle)
	case []any:
		for _, item := range v {
			if looseEqual(item, operand) {
				return true
			}
		}

		return false
	default:
		return false
	}
}

// ToFloat coerces a value with the locale-free parsing rule used throughout
// the engine, so "value > 10000" rules behave identically in the live and
// test evaluators.
func ToFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}

		return f, true
	default:
		return 0, false
	}
}

// looseEqual compares two values, treating numeric types of different widths
// as equal when their float forms match.
func looseEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if af, aok := numericValue(a); aok {
		if bf, bok := numericValue(b); bok {
			return af == bf
		}

		return false
	}

	// JSON arrays and objects are not comparable with ==; compare them
	// structurally instead of panicking.
	if !reflect.TypeOf(a).Comparable() || !reflect.TypeOf(b).Comparable() {
		return reflect.DeepEqual(a, b)
	}

	return a == b
}

// numericValue is ToFloat without the string coercion: "10" and 10 are not
// equal, but int(10) and float64(10) are.
func numericValue(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
