// Package ast defines the syntax tree produced by the parser for
// key-condition, condition/filter, and update expressions.
package ast

import (
	"bytes"
	"fmt"
	"strings"
)

// Node is the common interface for every AST node.
type Node interface {
	String() string
}

// Identifier is a bare name token (attribute name, placeholder name, or a
// string/type literal used as a function argument).
type Identifier struct {
	Value string
}

func (i *Identifier) String() string { return i.Value }

// Operand is anything that can appear where a path or value is expected:
// a bare/placeholder attribute name, an index step, a dotted step, a
// value placeholder, a literal, or a size(...) call.
type Operand interface {
	operandNode()
	String() string
}

// AttributeNameOperand is a path's leading segment: a bare identifier, a
// "#name" placeholder, or a ":name" value placeholder.
type AttributeNameOperand struct {
	Identifier *Identifier
	HasSharp   bool
	HasColon   bool
}

func (o *AttributeNameOperand) operandNode() {}
func (o *AttributeNameOperand) String() string {
	var b bytes.Buffer
	if o.HasSharp {
		b.WriteString("#")
	}
	if o.HasColon {
		b.WriteString(":")
	}
	b.WriteString(o.Identifier.String())
	return b.String()
}

// IndexOperand is a "left[n]" path step.
type IndexOperand struct {
	Left  Operand
	Index int
}

func (o *IndexOperand) operandNode() {}
func (o *IndexOperand) String() string {
	return fmt.Sprintf("%s[%d]", o.Left.String(), o.Index)
}

// DotOperand is a "left.right" path step.
type DotOperand struct {
	Left  Operand
	Right Operand
}

func (o *DotOperand) operandNode() {}
func (o *DotOperand) String() string {
	return fmt.Sprintf("%s.%s", o.Left.String(), o.Right.String())
}

// SizeOperand is the size(path) value token.
type SizeOperand struct {
	Path Operand
}

func (o *SizeOperand) operandNode() {}
func (o *SizeOperand) String() string {
	return fmt.Sprintf("size(%s)", o.Path.String())
}

// LiteralOperand is an inline number/string/bool/null token, accepted in
// condition/filter and update value positions. Key-condition expressions
// never produce one: their value positions accept only placeholders.
type LiteralOperand struct {
	Literal string
}

func (o *LiteralOperand) operandNode() {}
func (o *LiteralOperand) String() string { return o.Literal }

// PredicateType distinguishes the three key-condition range-predicate
// shapes.
type PredicateType uint8

const (
	SIMPLE PredicateType = iota
	BETWEEN
	BEGINS_WITH
)

// PredicateExpression is one clause of a key-condition expression.
type PredicateExpression interface {
	PredicateType() PredicateType
	String() string
}

type SimplePredicateExpression struct {
	AttributeName Operand
	Operator      string
	Value         Operand
}

func (p *SimplePredicateExpression) PredicateType() PredicateType { return SIMPLE }
func (p *SimplePredicateExpression) String() string {
	return fmt.Sprintf("%s %s %s", p.AttributeName, p.Operator, p.Value)
}

type BetweenPredicateExpression struct {
	AttributeName Operand
	LeftValue     Operand
	RightValue    Operand
}

func (p *BetweenPredicateExpression) PredicateType() PredicateType { return BETWEEN }
func (p *BetweenPredicateExpression) String() string {
	return fmt.Sprintf("%s BETWEEN %s AND %s", p.AttributeName, p.LeftValue, p.RightValue)
}

type BeginsWithPredicateExpression struct {
	AttributeName Operand
	Value         Operand
}

func (p *BeginsWithPredicateExpression) PredicateType() PredicateType { return BEGINS_WITH }
func (p *BeginsWithPredicateExpression) String() string {
	return fmt.Sprintf("begins_with(%s, %s)", p.AttributeName, p.Value)
}

// KeyConditionExpression is the top-level key-condition AST: a required
// hash-key predicate plus an optional range-key predicate.
type KeyConditionExpression struct {
	Predicate1 PredicateExpression
	Predicate2 PredicateExpression
}

func (k *KeyConditionExpression) String() string {
	if k.Predicate2 == nil {
		return k.Predicate1.String()
	}
	return fmt.Sprintf("%s AND %s", k.Predicate1, k.Predicate2)
}

// FunctionExpression is one of the named boolean functions usable inside
// a condition/filter expression.
type FunctionExpression interface {
	functionExpressionNode()
	String() string
}

type AttributeExistsFunctionExpression struct{ Path Operand }

func (f *AttributeExistsFunctionExpression) functionExpressionNode() {}
func (f *AttributeExistsFunctionExpression) String() string {
	return fmt.Sprintf("attribute_exists(%s)", f.Path)
}

type AttributeNotExistsFunctionExpression struct{ Path Operand }

func (f *AttributeNotExistsFunctionExpression) functionExpressionNode() {}
func (f *AttributeNotExistsFunctionExpression) String() string {
	return fmt.Sprintf("attribute_not_exists(%s)", f.Path)
}

type AttributeTypeFunctionExpression struct {
	Path Operand
	Type Operand
}

func (f *AttributeTypeFunctionExpression) functionExpressionNode() {}
func (f *AttributeTypeFunctionExpression) String() string {
	return fmt.Sprintf("attribute_type(%s, %s)", f.Path, f.Type)
}

type BeginsWithFunctionExpression struct {
	Path   Operand
	Prefix Operand
}

func (f *BeginsWithFunctionExpression) functionExpressionNode() {}
func (f *BeginsWithFunctionExpression) String() string {
	return fmt.Sprintf("begins_with(%s, %s)", f.Path, f.Prefix)
}

type ContainsFunctionExpression struct {
	Path    Operand
	Operand Operand
}

func (f *ContainsFunctionExpression) functionExpressionNode() {}
func (f *ContainsFunctionExpression) String() string {
	return fmt.Sprintf("contains(%s, %s)", f.Path, f.Operand)
}

type SizeFunctionExpression struct{ Path Operand }

func (f *SizeFunctionExpression) functionExpressionNode() {}
func (f *SizeFunctionExpression) String() string {
	return fmt.Sprintf("size(%s)", f.Path)
}

// ConditionExpression is the top-level boolean AST for condition, filter,
// and (via the shared grammar) ConditionCheck expressions.
type ConditionExpression interface {
	conditionExpressionNode()
	String() string
}

type ComparatorConditionExpression struct {
	Left     Operand
	Operator string
	Right    Operand
}

func (c *ComparatorConditionExpression) conditionExpressionNode() {}
func (c *ComparatorConditionExpression) String() string {
	return fmt.Sprintf("%s %s %s", c.Left, c.Operator, c.Right)
}

type BetweenConditionExpression struct {
	Operand Operand
	Begin   Operand
	End     Operand
}

func (c *BetweenConditionExpression) conditionExpressionNode() {}
func (c *BetweenConditionExpression) String() string {
	return fmt.Sprintf("%s BETWEEN %s AND %s", c.Operand, c.Begin, c.End)
}

type FunctionConditionExpression struct{ Function FunctionExpression }

func (c *FunctionConditionExpression) conditionExpressionNode() {}
func (c *FunctionConditionExpression) String() string           { return c.Function.String() }

type AndConditionExpression struct{ Left, Right ConditionExpression }

func (c *AndConditionExpression) conditionExpressionNode() {}
func (c *AndConditionExpression) String() string {
	return fmt.Sprintf("(%s AND %s)", c.Left, c.Right)
}

type OrConditionExpression struct{ Left, Right ConditionExpression }

func (c *OrConditionExpression) conditionExpressionNode() {}
func (c *OrConditionExpression) String() string {
	return fmt.Sprintf("(%s OR %s)", c.Left, c.Right)
}

type NotConditionExpression struct{ Condition ConditionExpression }

func (c *NotConditionExpression) conditionExpressionNode() {}
func (c *NotConditionExpression) String() string            { return fmt.Sprintf("NOT %s", c.Condition) }

// --- Update expression AST ---

// UpdateExpression is the top-level AST for an update expression: a
// SET clause and/or a REMOVE clause.
type UpdateExpression struct {
	SetActions    []*SetAction
	RemoveActions []Operand
}

func (u *UpdateExpression) String() string {
	var parts []string
	if len(u.SetActions) > 0 {
		var sets []string
		for _, a := range u.SetActions {
			sets = append(sets, a.String())
		}
		parts = append(parts, "SET "+strings.Join(sets, ", "))
	}
	if len(u.RemoveActions) > 0 {
		var removes []string
		for _, r := range u.RemoveActions {
			removes = append(removes, r.String())
		}
		parts = append(parts, "REMOVE "+strings.Join(removes, ", "))
	}
	return strings.Join(parts, " ")
}

// SetAction is one "path = rhs" assignment.
type SetAction struct {
	Path  Operand
	Value SetActionValue
}

func (a *SetAction) String() string {
	return fmt.Sprintf("%s = %s", a.Path, a.Value)
}

// SetActionValue is the right-hand side of a SET assignment.
type SetActionValue interface {
	setActionValueNode()
	String() string
}

// SetActionOperand wraps a plain value/path operand as an rhs.
type SetActionOperand struct{ Operand Operand }

func (v *SetActionOperand) setActionValueNode() {}
func (v *SetActionOperand) String() string       { return v.Operand.String() }

// SetActionInfixExpression is "left + right" / "left - right".
type SetActionInfixExpression struct {
	Left     Operand
	Operator string
	Right    Operand
}

func (v *SetActionInfixExpression) setActionValueNode() {}
func (v *SetActionInfixExpression) String() string {
	return fmt.Sprintf("%s %s %s", v.Left, v.Operator, v.Right)
}

// IfNotExistsExpression is "if_not_exists(path, rhs)".
type IfNotExistsExpression struct {
	Path     Operand
	Fallback Operand
}

func (v *IfNotExistsExpression) setActionValueNode() {}
func (v *IfNotExistsExpression) String() string {
	return fmt.Sprintf("if_not_exists(%s, %s)", v.Path, v.Fallback)
}

// ListAppendExpression is "list_append(left, right)".
type ListAppendExpression struct {
	Left  Operand
	Right Operand
}

func (v *ListAppendExpression) setActionValueNode() {}
func (v *ListAppendExpression) String() string {
	return fmt.Sprintf("list_append(%s, %s)", v.Left, v.Right)
}
