package controller

import (
	"fmt"

	"github.com/Knetic/govaluate"
)

// Formula converts numeric values with an expression of x, e.g. "x * 2.54"
// or "x / 2.54 + 7".
type Formula struct {
	expr *govaluate.EvaluableExpression
}

// ParseFormula returns nil for an empty expression.
func ParseFormula(expr string) (*Formula, error) {
	if expr == "" {
		return nil, nil
	}
	e, err := govaluate.NewEvaluableExpression(expr)
	if err != nil {
		return nil, fmt.Errorf("parse formula %q: %w", expr, err)
	}
	for _, v := range e.Vars() {
		if v != "x" {
			return nil, fmt.Errorf("parse formula %q: unknown variable %q", expr, v)
		}
	}
	return &Formula{expr: e}, nil
}

// Apply evaluates the formula for numeric inputs. Anything else, and any
// evaluation failure, passes through unchanged.
func (f *Formula) Apply(value any) any {
	if f == nil {
		return value
	}
	x, ok := hubFloat(value)
	if !ok {
		return value
	}
	result, err := f.expr.Evaluate(map[string]any{"x": x})
	if err != nil {
		return value
	}
	out, ok := result.(float64)
	if !ok {
		return value
	}
	if _, isInt := value.(int); isInt {
		return int(out)
	}
	return out
}
