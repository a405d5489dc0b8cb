package compiler

import "github.com/kristofer/smog/pkg/token"

// precedence is the binding-power ladder ParsePrecedence climbs,
// ordered exactly as spec §4.3 lists it.
type precedence int

const (
	precNone       precedence = iota
	precAssignment            // =
	precOr                    // or
	precAnd                   // and
	precEquality              // == !=
	precComparison            // < > <= >=
	precTerm                  // + -
	precFactor                // * /
	precUnary                 // ! -
	precCall                  // . ()
	precPrimary
)

type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence precedence
}

var rules map[token.Kind]parseRule

func init() {
	rules = map[token.Kind]parseRule{
		token.LEFT_PAREN:    {prefix: (*Compiler).grouping, infix: (*Compiler).call, precedence: precCall},
		token.DOT:           {infix: (*Compiler).dot, precedence: precCall},
		token.MINUS:         {prefix: (*Compiler).unary, infix: (*Compiler).binary, precedence: precTerm},
		token.PLUS:          {infix: (*Compiler).binary, precedence: precTerm},
		token.SLASH:         {infix: (*Compiler).binary, precedence: precFactor},
		token.STAR:          {infix: (*Compiler).binary, precedence: precFactor},
		token.BANG:          {prefix: (*Compiler).unary},
		token.BANG_EQUAL:    {infix: (*Compiler).binary, precedence: precEquality},
		token.EQUAL_EQUAL:   {infix: (*Compiler).binary, precedence: precEquality},
		token.GREATER:       {infix: (*Compiler).binary, precedence: precComparison},
		token.GREATER_EQUAL: {infix: (*Compiler).binary, precedence: precComparison},
		token.LESS:          {infix: (*Compiler).binary, precedence: precComparison},
		token.LESS_EQUAL:    {infix: (*Compiler).binary, precedence: precComparison},
		token.IDENTIFIER:    {prefix: (*Compiler).variable},
		token.STRING:        {prefix: (*Compiler).stringLiteral},
		token.NUMBER:        {prefix: (*Compiler).number},
		token.AND:           {infix: (*Compiler).and, precedence: precAnd},
		token.OR:            {infix: (*Compiler).or, precedence: precOr},
		token.FALSE:         {prefix: (*Compiler).literal},
		token.TRUE:          {prefix: (*Compiler).literal},
		token.NIL:           {prefix: (*Compiler).literal},
		token.THIS:          {prefix: (*Compiler).this},
		token.SUPER:         {prefix: (*Compiler).super},
	}
}

func ruleFor(k token.Kind) parseRule { return rules[k] }

// parsePrecedence implements spec §4.3's ParsePrecedence(P) algorithm:
// run the prefix rule for the next token, then keep consuming infix
// operators at least as binding as p.
func (c *Compiler) parsePrecedence(p precedence) {
	c.advance()
	prefix := ruleFor(c.previous.Kind).prefix
	if prefix == nil {
		c.error("Expected expression.")
		return
	}
	canAssign := p <= precAssignment
	prefix(c, canAssign)

	for p <= ruleFor(c.current.Kind).precedence {
		c.advance()
		infix := ruleFor(c.previous.Kind).infix
		infix(c, canAssign)
	}

	if canAssign && c.match(token.EQUAL) {
		c.error("Invalid assignment target.")
	}
}

func (c *Compiler) expression() { c.parsePrecedence(precAssignment) }
