// Package parser implements a Pratt parser for key-condition,
// condition/filter, and update expressions.
package parser

import (
	"fmt"

	"github.com/ocowchun/tindex/internal/expr/ast"
	"github.com/ocowchun/tindex/internal/expr/lexer"
	"github.com/ocowchun/tindex/internal/expr/token"
)

type Parser struct {
	l         *lexer.Lexer
	curToken  token.Token
	peekToken token.Token
}

func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) curTokenIs(t token.Type) bool  { return p.curToken.Type == t }
func (p *Parser) peekTokenIs(t token.Type) bool { return p.peekToken.Type == t }

func (p *Parser) expectPeek(t token.Type) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	return false
}

// DynamoDB-style precedence, highest first (the constants below run
// lowest first):
// = <> < <= > >=  |  IN  |  BETWEEN  |  functions  |  parens  |  NOT  |  AND  |  OR
const (
	precLowest uint8 = iota
	precOr
	precAnd
	precNot
	precParen
	precFunction
	precBetween
	precComparator
)

var precedences = map[token.Type]uint8{
	token.BETWEEN:              precBetween,
	token.ATTRIBUTE_EXISTS:     precFunction,
	token.ATTRIBUTE_NOT_EXISTS: precFunction,
	token.ATTRIBUTE_TYPE:       precFunction,
	token.CONTAINS:             precFunction,
	token.SIZE:                 precFunction,
	token.LPAREN:               precParen,
	token.NOT:                  precNot,
	token.AND:                  precAnd,
	token.OR:                   precOr,
}

func (p *Parser) peekPrecedence() uint8 {
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return precLowest
}

func (p *Parser) curPrecedence() uint8 {
	if prec, ok := precedences[p.curToken.Type]; ok {
		return prec
	}
	return precLowest
}

// --- Key-condition expressions ---

// ParseKeyConditionExpression parses "hash = :v [AND range-predicate]".
func ParseKeyConditionExpression(src string) (*ast.KeyConditionExpression, error) {
	p := New(lexer.NewFromString(src))
	predicate1, err := p.parsePredicateExpression()
	if err != nil {
		return nil, err
	}
	kce := &ast.KeyConditionExpression{Predicate1: predicate1}
	if p.peekTokenIs(token.AND) {
		p.nextToken()
		p.nextToken()
		predicate2, err := p.parsePredicateExpression()
		if err != nil {
			return nil, err
		}
		kce.Predicate2 = predicate2
	}
	if !p.peekTokenIs(token.EOF) {
		return nil, fmt.Errorf("unexpected trailing token %q in key condition expression", p.peekToken.Literal)
	}
	return kce, nil
}

func (p *Parser) parsePredicateExpression() (ast.PredicateExpression, error) {
	if p.curTokenIs(token.IDENT) || p.curTokenIs(token.SHARP) {
		attrName, err := p.parseBareAttributeName()
		if err != nil {
			return nil, err
		}
		p.nextToken()
		if p.curTokenIs(token.BETWEEN) {
			p.nextToken()
			left, err := p.parseValuePlaceholder()
			if err != nil {
				return nil, err
			}
			if !p.expectPeek(token.AND) {
				return nil, fmt.Errorf("expected AND in BETWEEN clause")
			}
			p.nextToken()
			right, err := p.parseValuePlaceholder()
			if err != nil {
				return nil, err
			}
			return &ast.BetweenPredicateExpression{AttributeName: attrName, LeftValue: left, RightValue: right}, nil
		}
		op, err := p.parseComparator()
		if err != nil {
			return nil, err
		}
		p.nextToken()
		val, err := p.parseValuePlaceholder()
		if err != nil {
			return nil, err
		}
		return &ast.SimplePredicateExpression{AttributeName: attrName, Operator: op, Value: val}, nil
	}

	if p.curTokenIs(token.BEGINS_WITH) {
		if !p.expectPeek(token.LPAREN) {
			return nil, fmt.Errorf("expected ( after begins_with")
		}
		p.nextToken()
		attrName, err := p.parseBareAttributeName()
		if err != nil {
			return nil, err
		}
		if !p.expectPeek(token.COMMA) {
			return nil, fmt.Errorf("expected , in begins_with")
		}
		p.nextToken()
		val, err := p.parseValuePlaceholder()
		if err != nil {
			return nil, err
		}
		if !p.expectPeek(token.RPAREN) {
			return nil, fmt.Errorf("expected ) to close begins_with")
		}
		return &ast.BeginsWithPredicateExpression{AttributeName: attrName, Value: val}, nil
	}

	return nil, fmt.Errorf("unexpected token %q in key condition expression", p.curToken.Literal)
}

func (p *Parser) parseBareAttributeName() (ast.Operand, error) {
	if p.curTokenIs(token.SHARP) {
		p.nextToken()
		name := p.curToken.Literal
		return &ast.AttributeNameOperand{Identifier: &ast.Identifier{Value: name}, HasSharp: true}, nil
	}
	if p.curTokenIs(token.IDENT) {
		return &ast.AttributeNameOperand{Identifier: &ast.Identifier{Value: p.curToken.Literal}}, nil
	}
	return nil, fmt.Errorf("expected attribute name, got %q", p.curToken.Literal)
}

func (p *Parser) parseValuePlaceholder() (ast.Operand, error) {
	if !p.curTokenIs(token.COLON) {
		return nil, fmt.Errorf("expected value placeholder, got %q", p.curToken.Literal)
	}
	p.nextToken()
	name := p.curToken.Literal
	return &ast.AttributeNameOperand{Identifier: &ast.Identifier{Value: name}, HasColon: true}, nil
}

func (p *Parser) parseComparator() (string, error) {
	op := ""
	if p.curTokenIs(token.LT) {
		op = "<"
	} else if p.curTokenIs(token.GT) {
		op = ">"
	} else if p.curTokenIs(token.EQ) {
		return "=", nil
	} else {
		return "", fmt.Errorf("unexpected operator token %q", p.curToken.Literal)
	}
	if p.peekTokenIs(token.EQ) {
		p.nextToken()
		op += "="
	}
	return op, nil
}

// --- Condition / filter expressions ---

func ParseConditionExpression(src string) (ast.ConditionExpression, error) {
	p := New(lexer.NewFromString(src))
	cond, err := p.parseConditionExpression(precLowest)
	if err != nil {
		return nil, err
	}
	if !p.peekTokenIs(token.EOF) {
		return nil, fmt.Errorf("unexpected trailing token %q in condition expression", p.peekToken.Literal)
	}
	return cond, nil
}

func (p *Parser) isFunctionToken() bool {
	switch p.curToken.Type {
	case token.ATTRIBUTE_EXISTS, token.ATTRIBUTE_NOT_EXISTS, token.ATTRIBUTE_TYPE, token.BEGINS_WITH, token.CONTAINS:
		return true
	default:
		return false
	}
}

func (p *Parser) parseConditionExpression(precedence uint8) (ast.ConditionExpression, error) {
	var left ast.ConditionExpression
	var err error

	switch {
	case p.curTokenIs(token.LPAREN):
		p.nextToken()
		left, err = p.parseConditionExpression(precLowest)
		if err != nil {
			return nil, err
		}
		if !p.expectPeek(token.RPAREN) {
			return nil, fmt.Errorf("expected ) to close parenthesized condition")
		}
	case p.curTokenIs(token.NOT):
		p.nextToken()
		cond, err := p.parseConditionExpression(precNot)
		if err != nil {
			return nil, err
		}
		left = &ast.NotConditionExpression{Condition: cond}
	case p.isFunctionToken():
		fn, err := p.parseFunctionExpression()
		if err != nil {
			return nil, err
		}
		left = &ast.FunctionConditionExpression{Function: fn}
	default:
		operand, err := p.parseValueOperand()
		if err != nil {
			return nil, err
		}
		if p.peekTokenIs(token.BETWEEN) {
			p.nextToken()
			p.nextToken()
			begin, err := p.parseValueOperand()
			if err != nil {
				return nil, err
			}
			if !p.expectPeek(token.AND) {
				return nil, fmt.Errorf("expected AND in BETWEEN")
			}
			p.nextToken()
			end, err := p.parseValueOperand()
			if err != nil {
				return nil, err
			}
			left = &ast.BetweenConditionExpression{Operand: operand, Begin: begin, End: end}
		} else {
			p.nextToken()
			op, err := p.parseConditionComparator()
			if err != nil {
				return nil, err
			}
			p.nextToken()
			right, err := p.parseValueOperand()
			if err != nil {
				return nil, err
			}
			left = &ast.ComparatorConditionExpression{Left: operand, Operator: op, Right: right}
		}
	}

	for (p.peekTokenIs(token.AND) || p.peekTokenIs(token.OR)) && precedence <= p.peekPrecedence() {
		p.nextToken()
		opType := p.curToken.Type
		opPrecedence := p.curPrecedence()
		p.nextToken()
		right, err := p.parseConditionExpression(opPrecedence)
		if err != nil {
			return nil, err
		}
		if opType == token.AND {
			left = &ast.AndConditionExpression{Left: left, Right: right}
		} else {
			left = &ast.OrConditionExpression{Left: left, Right: right}
		}
	}

	return left, nil
}

func (p *Parser) parseConditionComparator() (string, error) {
	switch p.curToken.Type {
	case token.EQ:
		return "=", nil
	case token.NOT_EQ:
		return "<>", nil
	case token.LT:
		if p.peekTokenIs(token.EQ) {
			p.nextToken()
			return "<=", nil
		}
		if p.peekTokenIs(token.GT) {
			p.nextToken()
			return "<>", nil
		}
		return "<", nil
	case token.GT:
		if p.peekTokenIs(token.EQ) {
			p.nextToken()
			return ">=", nil
		}
		return ">", nil
	default:
		return "", fmt.Errorf("unexpected comparator token %q", p.curToken.Literal)
	}
}

func (p *Parser) parseFunctionExpression() (ast.FunctionExpression, error) {
	switch p.curToken.Type {
	case token.ATTRIBUTE_EXISTS:
		path, err := p.parseSingleArgFunction()
		if err != nil {
			return nil, err
		}
		return &ast.AttributeExistsFunctionExpression{Path: path}, nil
	case token.ATTRIBUTE_NOT_EXISTS:
		path, err := p.parseSingleArgFunction()
		if err != nil {
			return nil, err
		}
		return &ast.AttributeNotExistsFunctionExpression{Path: path}, nil
	case token.SIZE:
		path, err := p.parseSingleArgFunction()
		if err != nil {
			return nil, err
		}
		return &ast.SizeFunctionExpression{Path: path}, nil
	case token.ATTRIBUTE_TYPE:
		if !p.expectPeek(token.LPAREN) {
			return nil, fmt.Errorf("expected ( after attribute_type")
		}
		p.nextToken()
		path, err := p.parseValueOperand()
		if err != nil {
			return nil, err
		}
		if !p.expectPeek(token.COMMA) {
			return nil, fmt.Errorf("expected , in attribute_type")
		}
		p.nextToken()
		typ, err := p.parseValueOperand()
		if err != nil {
			return nil, err
		}
		if !p.expectPeek(token.RPAREN) {
			return nil, fmt.Errorf("expected ) to close attribute_type")
		}
		return &ast.AttributeTypeFunctionExpression{Path: path, Type: typ}, nil
	case token.BEGINS_WITH:
		if !p.expectPeek(token.LPAREN) {
			return nil, fmt.Errorf("expected ( after begins_with")
		}
		p.nextToken()
		path, err := p.parseValueOperand()
		if err != nil {
			return nil, err
		}
		if !p.expectPeek(token.COMMA) {
			return nil, fmt.Errorf("expected , in begins_with")
		}
		p.nextToken()
		prefix, err := p.parseValueOperand()
		if err != nil {
			return nil, err
		}
		if !p.expectPeek(token.RPAREN) {
			return nil, fmt.Errorf("expected ) to close begins_with")
		}
		return &ast.BeginsWithFunctionExpression{Path: path, Prefix: prefix}, nil
	case token.CONTAINS:
		if !p.expectPeek(token.LPAREN) {
			return nil, fmt.Errorf("expected ( after contains")
		}
		p.nextToken()
		path, err := p.parseValueOperand()
		if err != nil {
			return nil, err
		}
		if !p.expectPeek(token.COMMA) {
			return nil, fmt.Errorf("expected , in contains")
		}
		p.nextToken()
		operand, err := p.parseValueOperand()
		if err != nil {
			return nil, err
		}
		if !p.expectPeek(token.RPAREN) {
			return nil, fmt.Errorf("expected ) to close contains")
		}
		return &ast.ContainsFunctionExpression{Path: path, Operand: operand}, nil
	default:
		return nil, fmt.Errorf("unknown function token %q", p.curToken.Literal)
	}
}

func (p *Parser) parseSingleArgFunction() (ast.Operand, error) {
	if !p.expectPeek(token.LPAREN) {
		return nil, fmt.Errorf("expected (")
	}
	p.nextToken()
	path, err := p.parseValueOperand()
	if err != nil {
		return nil, err
	}
	if !p.expectPeek(token.RPAREN) {
		return nil, fmt.Errorf("expected )")
	}
	return path, nil
}

// parseValueOperand parses one value-token per the grammar: a document
// path (bare/placeholder attribute with .dot/[index] chaining), a value
// placeholder, size(path), or a literal (number/string/true/false/null).
func (p *Parser) parseValueOperand() (ast.Operand, error) {
	var operand ast.Operand

	switch {
	case p.curTokenIs(token.SIZE):
		path, err := p.parseSingleArgFunction()
		if err != nil {
			return nil, err
		}
		return &ast.SizeOperand{Path: path}, nil
	case p.curTokenIs(token.IDENT):
		operand = &ast.AttributeNameOperand{Identifier: &ast.Identifier{Value: p.curToken.Literal}}
	case p.curTokenIs(token.SHARP):
		p.nextToken()
		operand = &ast.AttributeNameOperand{Identifier: &ast.Identifier{Value: p.curToken.Literal}, HasSharp: true}
	case p.curTokenIs(token.COLON):
		p.nextToken()
		operand = &ast.AttributeNameOperand{Identifier: &ast.Identifier{Value: p.curToken.Literal}, HasColon: true}
	case p.curTokenIs(token.INT):
		return &ast.LiteralOperand{Literal: p.curToken.Literal}, nil
	case p.curTokenIs(token.STRING):
		return &ast.LiteralOperand{Literal: p.curToken.Literal}, nil
	case p.curTokenIs(token.TRUE):
		return &ast.LiteralOperand{Literal: "true"}, nil
	case p.curTokenIs(token.FALSE):
		return &ast.LiteralOperand{Literal: "false"}, nil
	case p.curTokenIs(token.NULL):
		return &ast.LiteralOperand{Literal: "null"}, nil
	default:
		return nil, fmt.Errorf("unexpected token %q in value position", p.curToken.Literal)
	}

	return p.parsePathSuffix(operand)
}

func (p *Parser) parsePathSuffix(operand ast.Operand) (ast.Operand, error) {
	for {
		if p.peekTokenIs(token.DOT) {
			p.nextToken()
			p.nextToken()
			var right ast.Operand
			switch {
			case p.curTokenIs(token.IDENT):
				right = &ast.AttributeNameOperand{Identifier: &ast.Identifier{Value: p.curToken.Literal}}
			case p.curTokenIs(token.SHARP):
				p.nextToken()
				right = &ast.AttributeNameOperand{Identifier: &ast.Identifier{Value: p.curToken.Literal}, HasSharp: true}
			default:
				return nil, fmt.Errorf("expected attribute name after '.'")
			}
			operand = &ast.DotOperand{Left: operand, Right: right}
			continue
		}
		if p.peekTokenIs(token.LBRACKET) {
			p.nextToken()
			p.nextToken()
			if !p.curTokenIs(token.INT) {
				return nil, fmt.Errorf("expected integer index, got %q", p.curToken.Literal)
			}
			idx := 0
			for _, c := range p.curToken.Literal {
				if c < '0' || c > '9' {
					return nil, fmt.Errorf("list index must be a nonnegative integer, got %q", p.curToken.Literal)
				}
				idx = idx*10 + int(c-'0')
			}
			if !p.expectPeek(token.RBRACKET) {
				return nil, fmt.Errorf("expected ]")
			}
			operand = &ast.IndexOperand{Left: operand, Index: idx}
			continue
		}
		break
	}
	return operand, nil
}

// --- Update expressions ---

// ParseUpdateExpression parses "SET ... [REMOVE ...]" or "REMOVE ...".
func ParseUpdateExpression(src string) (*ast.UpdateExpression, error) {
	p := New(lexer.NewFromString(src))
	result := &ast.UpdateExpression{}

	sawClause := false
	for {
		switch p.curToken.Type {
		case token.SET:
			p.nextToken()
			actions, err := p.parseSetActions()
			if err != nil {
				return nil, err
			}
			result.SetActions = actions
			sawClause = true
		case token.REMOVE:
			p.nextToken()
			paths, err := p.parseRemoveActions()
			if err != nil {
				return nil, err
			}
			result.RemoveActions = paths
			sawClause = true
		case token.EOF:
			if !sawClause {
				return nil, fmt.Errorf("update expression is empty; expected SET or REMOVE, got <EOF>")
			}
			return result, nil
		default:
			return nil, fmt.Errorf("unexpected token %q in update expression; expected SET or REMOVE", p.curToken.Literal)
		}
	}
}

func (p *Parser) parseSetActions() ([]*ast.SetAction, error) {
	var actions []*ast.SetAction
	if p.curTokenIs(token.EOF) {
		return nil, fmt.Errorf("SET clause has no assignments; expected a path, got <EOF>")
	}
	for {
		path, err := p.parseValueOperand()
		if err != nil {
			return nil, err
		}
		if !p.expectPeek(token.EQ) {
			return nil, fmt.Errorf("expected = in SET action, got %q", p.peekToken.Literal)
		}
		p.nextToken()
		value, err := p.parseSetActionValue()
		if err != nil {
			return nil, err
		}
		actions = append(actions, &ast.SetAction{Path: path, Value: value})

		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
			p.nextToken()
			continue
		}
		break
	}
	if len(actions) == 0 {
		return nil, fmt.Errorf("SET clause has no assignments; expected a path, got <EOF>")
	}
	p.nextToken()
	return actions, nil
}

func (p *Parser) parseSetActionValue() (ast.SetActionValue, error) {
	if p.curTokenIs(token.IF_NOT_EXISTS) {
		if !p.expectPeek(token.LPAREN) {
			return nil, fmt.Errorf("expected ( after if_not_exists")
		}
		p.nextToken()
		path, err := p.parseValueOperand()
		if err != nil {
			return nil, err
		}
		if !p.expectPeek(token.COMMA) {
			return nil, fmt.Errorf("expected , in if_not_exists")
		}
		p.nextToken()
		fallback, err := p.parseValueOperand()
		if err != nil {
			return nil, err
		}
		if !p.expectPeek(token.RPAREN) {
			return nil, fmt.Errorf("expected ) to close if_not_exists")
		}
		return &ast.IfNotExistsExpression{Path: path, Fallback: fallback}, nil
	}
	if p.curTokenIs(token.LIST_APPEND) {
		if !p.expectPeek(token.LPAREN) {
			return nil, fmt.Errorf("expected ( after list_append")
		}
		p.nextToken()
		left, err := p.parseValueOperand()
		if err != nil {
			return nil, err
		}
		if !p.expectPeek(token.COMMA) {
			return nil, fmt.Errorf("expected , in list_append")
		}
		p.nextToken()
		right, err := p.parseValueOperand()
		if err != nil {
			return nil, err
		}
		if !p.expectPeek(token.RPAREN) {
			return nil, fmt.Errorf("expected ) to close list_append")
		}
		return &ast.ListAppendExpression{Left: left, Right: right}, nil
	}

	left, err := p.parseValueOperand()
	if err != nil {
		return nil, err
	}
	if p.peekTokenIs(token.PLUS) || p.peekTokenIs(token.MINUS) {
		opTok := p.peekToken.Type
		p.nextToken()
		p.nextToken()
		right, err := p.parseValueOperand()
		if err != nil {
			return nil, err
		}
		op := "+"
		if opTok == token.MINUS {
			op = "-"
		}
		return &ast.SetActionInfixExpression{Left: left, Operator: op, Right: right}, nil
	}
	return &ast.SetActionOperand{Operand: left}, nil
}

func (p *Parser) parseRemoveActions() ([]ast.Operand, error) {
	var paths []ast.Operand
	if p.curTokenIs(token.EOF) {
		return nil, fmt.Errorf("REMOVE clause has no paths; expected a path, got <EOF>")
	}
	for {
		path, err := p.parseValueOperand()
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
			p.nextToken()
			continue
		}
		break
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("REMOVE clause has no paths; expected a path, got <EOF>")
	}
	p.nextToken()
	return paths, nil
}
