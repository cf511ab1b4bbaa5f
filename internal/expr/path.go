// Package expr ties the lexer/parser/ast packages together into
// document-path resolution and boolean/update evaluation over
// core.Item, using caller-supplied ExpressionAttributeNames and
// ExpressionAttributeValues maps to resolve placeholders.
package expr

import (
	"fmt"

	"github.com/ocowchun/tindex/internal/core"
	"github.com/ocowchun/tindex/internal/expr/ast"
)

// Names/Values carry the ExpressionAttributeNames/Values maps that
// placeholder operands are resolved against.
type Names map[string]string
type Values map[string]core.AttributeValue

// ResolvePath converts a parsed path Operand chain into a core.Path,
// resolving "#name" placeholders via names. ":name" value placeholders
// are not valid path roots and produce an error.
func ResolvePath(operand ast.Operand, names Names) (core.Path, error) {
	switch o := operand.(type) {
	case *ast.AttributeNameOperand:
		name, err := resolveAttrName(o, names)
		if err != nil {
			return nil, err
		}
		return core.Path{{Name: name}}, nil
	case *ast.DotOperand:
		left, err := ResolvePath(o.Left, names)
		if err != nil {
			return nil, err
		}
		nameOperand, ok := o.Right.(*ast.AttributeNameOperand)
		if !ok {
			return nil, fmt.Errorf("invalid path segment %q", o.Right.String())
		}
		name, err := resolveAttrName(nameOperand, names)
		if err != nil {
			return nil, err
		}
		return append(left, core.PathSegment{Name: name}), nil
	case *ast.IndexOperand:
		left, err := ResolvePath(o.Left, names)
		if err != nil {
			return nil, err
		}
		return append(left, core.PathSegment{Idx: o.Index, IsIndex: true}), nil
	default:
		return nil, fmt.Errorf("%q is not a valid document path", operand.String())
	}
}

func resolveAttrName(o *ast.AttributeNameOperand, names Names) (string, error) {
	if o.HasColon {
		return "", fmt.Errorf("%q is not a valid document path", o.String())
	}
	if o.HasSharp {
		name, ok := names[o.String()]
		if !ok {
			return "", fmt.Errorf("An expression attribute name used in the document path is not defined; attribute name: %s", o.String())
		}
		return name, nil
	}
	return o.Identifier.Value, nil
}

// ResolveValue resolves a ":name" value placeholder to an AttributeValue.
func ResolveValue(operand ast.Operand, values Values) (core.AttributeValue, error) {
	o, ok := operand.(*ast.AttributeNameOperand)
	if !ok || !o.HasColon {
		return core.AttributeValue{}, fmt.Errorf("%q is not a value placeholder", operand.String())
	}
	val, ok := values[o.String()]
	if !ok {
		return core.AttributeValue{}, fmt.Errorf("An expression attribute value used in expression is not defined; attribute value: %s", o.String())
	}
	return val, nil
}

// ResolveOperand evaluates any value-position operand (path, placeholder,
// literal, or size(...)) against an item.
func ResolveOperand(operand ast.Operand, item core.Item, names Names, values Values) (core.AttributeValue, error) {
	switch o := operand.(type) {
	case *ast.AttributeNameOperand:
		if o.HasColon {
			return ResolveValue(o, values)
		}
		path, err := ResolvePath(o, names)
		if err != nil {
			return core.AttributeValue{}, err
		}
		return item.Get(path), nil
	case *ast.DotOperand, *ast.IndexOperand:
		path, err := ResolvePath(o, names)
		if err != nil {
			return core.AttributeValue{}, err
		}
		return item.Get(path), nil
	case *ast.SizeOperand:
		val, err := ResolveOperand(o.Path, item, names, values)
		if err != nil {
			return core.AttributeValue{}, err
		}
		if core.IsMissing(val) {
			return core.Missing, nil
		}
		size, err := val.Size()
		if err != nil {
			return core.AttributeValue{}, err
		}
		return core.N(fmt.Sprintf("%d", size)), nil
	case *ast.LiteralOperand:
		return literalValue(o.Literal), nil
	default:
		return core.AttributeValue{}, fmt.Errorf("unsupported operand %q", operand.String())
	}
}

func literalValue(lit string) core.AttributeValue {
	switch lit {
	case "true":
		return core.Bool(true)
	case "false":
		return core.Bool(false)
	case "null":
		return core.Null()
	}
	if len(lit) > 0 && (lit[0] == '-' || (lit[0] >= '0' && lit[0] <= '9')) {
		return core.N(lit)
	}
	return core.S(lit)
}
