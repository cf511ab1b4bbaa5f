package expr

import (
	"fmt"
	"strconv"

	"github.com/ocowchun/tindex/internal/core"
	"github.com/ocowchun/tindex/internal/expr/ast"
)

// ApplyUpdate applies a parsed update expression's SET and REMOVE actions
// to item in place. keyAttrs names the item's primary-key attributes,
// which an update expression may not change to a different value (a
// no-op assignment of a key attribute to its current value is allowed).
func ApplyUpdate(upd *ast.UpdateExpression, item core.Item, names Names, values Values, keyAttrs map[string]bool) error {
	for _, action := range upd.SetActions {
		path, err := ResolvePath(action.Path, names)
		if err != nil {
			return err
		}
		val, err := evalSetActionValue(action.Value, item, names, values)
		if err != nil {
			return err
		}
		if keyAttrs[path.TopLevelAttr()] && len(path) == 1 {
			current := item.Get(path)
			if !current.Equal(val) {
				return fmt.Errorf("This attribute is part of the key")
			}
			continue
		}
		if err := item.Set(path, val); err != nil {
			return err
		}
	}

	for _, pathOperand := range upd.RemoveActions {
		path, err := ResolvePath(pathOperand, names)
		if err != nil {
			return err
		}
		if keyAttrs[path.TopLevelAttr()] {
			return fmt.Errorf("This attribute is part of the key")
		}
		if err := item.Remove(path); err != nil {
			return err
		}
	}

	return nil
}

func evalSetActionValue(val ast.SetActionValue, item core.Item, names Names, values Values) (core.AttributeValue, error) {
	switch v := val.(type) {
	case *ast.SetActionOperand:
		return ResolveOperand(v.Operand, item, names, values)
	case *ast.SetActionInfixExpression:
		left, err := ResolveOperand(v.Left, item, names, values)
		if err != nil {
			return core.AttributeValue{}, err
		}
		right, err := ResolveOperand(v.Right, item, names, values)
		if err != nil {
			return core.AttributeValue{}, err
		}
		if left.N == nil || right.N == nil {
			return core.AttributeValue{}, fmt.Errorf("Incorrect operand type for operator or function; operator: %s", v.Operator)
		}
		numLeft, err := strconv.ParseFloat(*left.N, 64)
		if err != nil {
			return core.AttributeValue{}, err
		}
		numRight, err := strconv.ParseFloat(*right.N, 64)
		if err != nil {
			return core.AttributeValue{}, err
		}
		var result float64
		if v.Operator == "+" {
			result = numLeft + numRight
		} else {
			result = numLeft - numRight
		}
		return core.N(strconv.FormatFloat(result, 'f', -1, 64)), nil
	case *ast.IfNotExistsExpression:
		path, err := ResolvePath(v.Path, names)
		if err != nil {
			return core.AttributeValue{}, err
		}
		current := item.Get(path)
		if !core.IsMissing(current) {
			return current, nil
		}
		return ResolveOperand(v.Fallback, item, names, values)
	case *ast.ListAppendExpression:
		left, err := ResolveOperand(v.Left, item, names, values)
		if err != nil {
			return core.AttributeValue{}, err
		}
		right, err := ResolveOperand(v.Right, item, names, values)
		if err != nil {
			return core.AttributeValue{}, err
		}
		if left.L == nil || right.L == nil {
			return core.AttributeValue{}, fmt.Errorf("Incorrect operand type for operator or function; operator: list_append")
		}
		combined := append(append([]core.AttributeValue{}, *left.L...), *right.L...)
		return core.List(combined), nil
	default:
		return core.AttributeValue{}, fmt.Errorf("unsupported SET action value %q", val.String())
	}
}
