package expr

import (
	"fmt"

	"github.com/ocowchun/tindex/internal/expr/ast"
	"github.com/ocowchun/tindex/internal/expr/parser"
	"github.com/ocowchun/tindex/internal/treap"
)

// KeyCondition is a parsed and resolved key-condition expression: the
// required hash-key equality plus an optional range-key restriction
// translated into treap iteration bounds (§4.4's mapping table).
type KeyCondition struct {
	HashAttr  string
	HashValue string

	HasRange  bool
	RangeAttr string
	Bounds    treap.Bounds
}

// EvalKeyCondition parses and resolves a key-condition expression string.
func EvalKeyCondition(src string, names Names, values Values) (*KeyCondition, error) {
	kce, err := parser.ParseKeyConditionExpression(src)
	if err != nil {
		return nil, err
	}
	return ResolveKeyCondition(kce, names, values)
}

// ResolveKeyCondition translates an already-parsed key-condition AST into
// a KeyCondition, resolving placeholders and mapping the range predicate
// to iteration bounds.
func ResolveKeyCondition(kce *ast.KeyConditionExpression, names Names, values Values) (*KeyCondition, error) {
	hashAttr, hashValue, err := evalHashPredicate(kce.Predicate1, names, values)
	if err != nil {
		return nil, err
	}
	kc := &KeyCondition{HashAttr: hashAttr, HashValue: hashValue}

	if kce.Predicate2 == nil {
		return kc, nil
	}

	rangeAttr, bounds, err := evalRangePredicate(kce.Predicate2, names, values)
	if err != nil {
		return nil, err
	}
	kc.HasRange = true
	kc.RangeAttr = rangeAttr
	kc.Bounds = bounds
	return kc, nil
}

func evalHashPredicate(pred ast.PredicateExpression, names Names, values Values) (attr, value string, err error) {
	simple, ok := pred.(*ast.SimplePredicateExpression)
	if !ok || simple.Operator != "=" {
		return "", "", fmt.Errorf("Query key condition not supported")
	}
	attrOperand, ok := simple.AttributeName.(*ast.AttributeNameOperand)
	if !ok {
		return "", "", fmt.Errorf("Query key condition not supported")
	}
	attrName, err := resolveAttrName(attrOperand, names)
	if err != nil {
		return "", "", err
	}
	val, err := ResolveValue(simple.Value, values)
	if err != nil {
		return "", "", err
	}
	if val.S == nil {
		return "", "", fmt.Errorf("Query key condition not supported")
	}
	return attrName, *val.S, nil
}

func evalRangePredicate(pred ast.PredicateExpression, names Names, values Values) (attr string, bounds treap.Bounds, err error) {
	switch p := pred.(type) {
	case *ast.SimplePredicateExpression:
		attrOperand, ok := p.AttributeName.(*ast.AttributeNameOperand)
		if !ok {
			return "", treap.Bounds{}, fmt.Errorf("Query key condition not supported")
		}
		attrName, err := resolveAttrName(attrOperand, names)
		if err != nil {
			return "", treap.Bounds{}, err
		}
		val, err := ResolveValue(p.Value, values)
		if err != nil {
			return "", treap.Bounds{}, err
		}
		if val.S == nil {
			return "", treap.Bounds{}, fmt.Errorf("Query key condition not supported")
		}
		bounds, err := comparatorBounds(p.Operator, *val.S)
		return attrName, bounds, err
	case *ast.BetweenPredicateExpression:
		attrOperand, ok := p.AttributeName.(*ast.AttributeNameOperand)
		if !ok {
			return "", treap.Bounds{}, fmt.Errorf("Query key condition not supported")
		}
		attrName, err := resolveAttrName(attrOperand, names)
		if err != nil {
			return "", treap.Bounds{}, err
		}
		left, err := ResolveValue(p.LeftValue, values)
		if err != nil {
			return "", treap.Bounds{}, err
		}
		right, err := ResolveValue(p.RightValue, values)
		if err != nil {
			return "", treap.Bounds{}, err
		}
		if left.S == nil || right.S == nil {
			return "", treap.Bounds{}, fmt.Errorf("Query key condition not supported")
		}
		return attrName, treap.Bounds{
			Lower: treap.Bound{Key: rangeFloor(*left.S), Inclusive: true, Set: true},
			Upper: treap.Bound{Key: rangeCeil(*right.S), Inclusive: true, Set: true},
		}, nil
	case *ast.BeginsWithPredicateExpression:
		attrOperand, ok := p.AttributeName.(*ast.AttributeNameOperand)
		if !ok {
			return "", treap.Bounds{}, fmt.Errorf("Query key condition not supported")
		}
		attrName, err := resolveAttrName(attrOperand, names)
		if err != nil {
			return "", treap.Bounds{}, err
		}
		val, err := ResolveValue(p.Value, values)
		if err != nil {
			return "", treap.Bounds{}, err
		}
		if val.S == nil {
			return "", treap.Bounds{}, fmt.Errorf("Query key condition not supported")
		}
		return attrName, treap.Bounds{
			Lower: treap.Bound{Key: rangeFloor(*val.S), Inclusive: true, Set: true},
			Upper: treap.Bound{Key: rangeFloor(*val.S + maxRune), Inclusive: true, Set: true},
		}, nil
	default:
		return "", treap.Bounds{}, fmt.Errorf("Query key condition not supported")
	}
}

// maxRune is U+FFFF, the sentinel spec.md §4.4's bounds table appends to a
// range value to build an upper bound that sorts after every continuation
// of that value but before the NUL separator of any larger value.
const maxRune = "￿"

// rangeFloor builds "v+NUL+''", the smallest encoded entry key whose range
// component equals v.
func rangeFloor(v string) string {
	return v + "\x00"
}

// rangeCeil builds "v+NUL+￿", the largest encoded entry key whose
// range component equals v (no real encoded item key can contain ￿).
func rangeCeil(v string) string {
	return v + "\x00" + maxRune
}

// comparatorBounds implements the §4.4 range-condition mapping for the
// five comparator operators, bounding on the NUL-separated entry-key
// encoding so the bound only ever matches entries whose range component is
// exactly (for "=") or strictly ordered against (for the inequalities) v,
// never a value that merely extends v as a string.
func comparatorBounds(op, value string) (treap.Bounds, error) {
	switch op {
	case "=":
		return treap.Bounds{
			Lower: treap.Bound{Key: rangeFloor(value), Inclusive: true, Set: true},
			Upper: treap.Bound{Key: rangeCeil(value), Inclusive: true, Set: true},
		}, nil
	case ">":
		return treap.Bounds{
			Lower: treap.Bound{Key: rangeCeil(value), Inclusive: false, Set: true},
		}, nil
	case ">=":
		return treap.Bounds{
			Lower: treap.Bound{Key: rangeFloor(value), Inclusive: true, Set: true},
		}, nil
	case "<":
		return treap.Bounds{
			Upper: treap.Bound{Key: rangeFloor(value), Inclusive: false, Set: true},
		}, nil
	case "<=":
		return treap.Bounds{
			Upper: treap.Bound{Key: rangeCeil(value), Inclusive: true, Set: true},
		}, nil
	default:
		return treap.Bounds{}, fmt.Errorf("unsupported key condition operator %q", op)
	}
}
