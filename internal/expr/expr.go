package expr

import (
	"github.com/ocowchun/tindex/internal/core"
	"github.com/ocowchun/tindex/internal/expr/parser"
)

// EvalConditionString parses and evaluates a condition/filter expression
// string against item in one step.
func EvalConditionString(src string, item core.Item, names Names, values Values) (bool, error) {
	cond, err := parser.ParseConditionExpression(src)
	if err != nil {
		return false, err
	}
	return EvalCondition(cond, item, names, values)
}

// ApplyUpdateString parses and applies an update expression string to
// item in one step.
func ApplyUpdateString(src string, item core.Item, names Names, values Values, keyAttrs map[string]bool) error {
	upd, err := parser.ParseUpdateExpression(src)
	if err != nil {
		return err
	}
	return ApplyUpdate(upd, item, names, values, keyAttrs)
}
