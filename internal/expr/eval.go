package expr

import (
	"fmt"

	"github.com/ocowchun/tindex/internal/core"
	"github.com/ocowchun/tindex/internal/expr/ast"
)

// EvalCondition evaluates a parsed condition/filter expression against an
// item. Comparators and functions treat a MISSING operand as non-matching,
// except attribute_exists/attribute_not_exists which test presence itself.
func EvalCondition(cond ast.ConditionExpression, item core.Item, names Names, values Values) (bool, error) {
	switch c := cond.(type) {
	case *ast.ComparatorConditionExpression:
		left, err := ResolveOperand(c.Left, item, names, values)
		if err != nil {
			return false, err
		}
		right, err := ResolveOperand(c.Right, item, names, values)
		if err != nil {
			return false, err
		}
		if core.IsMissing(left) || core.IsMissing(right) {
			return false, nil
		}
		return evalComparator(c.Operator, left, right)
	case *ast.BetweenConditionExpression:
		val, err := ResolveOperand(c.Operand, item, names, values)
		if err != nil {
			return false, err
		}
		begin, err := ResolveOperand(c.Begin, item, names, values)
		if err != nil {
			return false, err
		}
		end, err := ResolveOperand(c.End, item, names, values)
		if err != nil {
			return false, err
		}
		if core.IsMissing(val) || core.IsMissing(begin) || core.IsMissing(end) {
			return false, nil
		}
		lo, err := val.Compare(begin)
		if err != nil {
			return false, err
		}
		hi, err := val.Compare(end)
		if err != nil {
			return false, err
		}
		return lo >= 0 && hi <= 0, nil
	case *ast.FunctionConditionExpression:
		return evalFunction(c.Function, item, names, values)
	case *ast.AndConditionExpression:
		left, err := EvalCondition(c.Left, item, names, values)
		if err != nil {
			return false, err
		}
		if !left {
			return false, nil
		}
		return EvalCondition(c.Right, item, names, values)
	case *ast.OrConditionExpression:
		left, err := EvalCondition(c.Left, item, names, values)
		if err != nil {
			return false, err
		}
		if left {
			return true, nil
		}
		return EvalCondition(c.Right, item, names, values)
	case *ast.NotConditionExpression:
		inner, err := EvalCondition(c.Condition, item, names, values)
		if err != nil {
			return false, err
		}
		return !inner, nil
	default:
		return false, fmt.Errorf("unsupported condition expression %q", cond.String())
	}
}

func evalComparator(op string, left, right core.AttributeValue) (bool, error) {
	switch op {
	case "=":
		return left.Equal(right), nil
	case "<>":
		return !left.Equal(right), nil
	}
	cmp, err := left.Compare(right)
	if err != nil {
		return false, err
	}
	switch op {
	case "<":
		return cmp < 0, nil
	case "<=":
		return cmp <= 0, nil
	case ">":
		return cmp > 0, nil
	case ">=":
		return cmp >= 0, nil
	default:
		return false, fmt.Errorf("unsupported comparator %q", op)
	}
}

func evalFunction(fn ast.FunctionExpression, item core.Item, names Names, values Values) (bool, error) {
	switch f := fn.(type) {
	case *ast.AttributeExistsFunctionExpression:
		val, err := ResolveOperand(f.Path, item, names, values)
		if err != nil {
			return false, err
		}
		return !core.IsMissing(val), nil
	case *ast.AttributeNotExistsFunctionExpression:
		val, err := ResolveOperand(f.Path, item, names, values)
		if err != nil {
			return false, err
		}
		return core.IsMissing(val), nil
	case *ast.AttributeTypeFunctionExpression:
		val, err := ResolveOperand(f.Path, item, names, values)
		if err != nil {
			return false, err
		}
		if core.IsMissing(val) {
			return false, nil
		}
		typeVal, err := ResolveOperand(f.Type, item, names, values)
		if err != nil {
			return false, err
		}
		if typeVal.S == nil {
			return false, fmt.Errorf("attribute_type's second argument must be a string")
		}
		return val.Type() == *typeVal.S, nil
	case *ast.BeginsWithFunctionExpression:
		val, err := ResolveOperand(f.Path, item, names, values)
		if err != nil {
			return false, err
		}
		prefix, err := ResolveOperand(f.Prefix, item, names, values)
		if err != nil {
			return false, err
		}
		if core.IsMissing(val) || core.IsMissing(prefix) || val.S == nil || prefix.S == nil {
			return false, nil
		}
		return len(*val.S) >= len(*prefix.S) && (*val.S)[:len(*prefix.S)] == *prefix.S, nil
	case *ast.ContainsFunctionExpression:
		return evalContains(f, item, names, values)
	case *ast.SizeFunctionExpression:
		return false, fmt.Errorf("size(...) is not a boolean expression")
	default:
		return false, fmt.Errorf("unsupported function %q", fn.String())
	}
}

func evalContains(f *ast.ContainsFunctionExpression, item core.Item, names Names, values Values) (bool, error) {
	val, err := ResolveOperand(f.Path, item, names, values)
	if err != nil {
		return false, err
	}
	operand, err := ResolveOperand(f.Operand, item, names, values)
	if err != nil {
		return false, err
	}
	if core.IsMissing(val) || core.IsMissing(operand) {
		return false, nil
	}
	switch {
	case val.S != nil && operand.S != nil:
		return containsSubstring(*val.S, *operand.S), nil
	case val.SS != nil && operand.S != nil:
		for _, s := range *val.SS {
			if s == *operand.S {
				return true, nil
			}
		}
		return false, nil
	case val.NS != nil && operand.N != nil:
		for _, n := range *val.NS {
			if n == *operand.N {
				return true, nil
			}
		}
		return false, nil
	case val.L != nil:
		for _, el := range *val.L {
			if el.Equal(operand) {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, nil
	}
}

func containsSubstring(s, sub string) bool {
	if len(sub) == 0 {
		return true
	}
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
