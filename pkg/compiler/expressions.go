package compiler

import (
	"strconv"
	"strings"

	"github.com/kristofer/smog/pkg/chunk"
	"github.com/kristofer/smog/pkg/token"
	"github.com/kristofer/smog/pkg/value"
)

func (c *Compiler) number(canAssign bool) {
	n, err := strconv.ParseFloat(c.previous.Lexeme, 64)
	if err != nil {
		c.error("Invalid number literal.")
		return
	}
	c.emitConstant(value.Number(n))
}

// stringLiteral strips the surrounding quotes the scanner left in place.
func (c *Compiler) stringLiteral(canAssign bool) {
	raw := c.previous.Lexeme
	chars := strings.TrimSuffix(strings.TrimPrefix(raw, `"`), `"`)
	c.emitConstant(value.FromObj(c.gc.Intern(chars)))
}

func (c *Compiler) literal(canAssign bool) {
	switch c.previous.Kind {
	case token.FALSE:
		c.emitOp(chunk.OpFalse)
	case token.TRUE:
		c.emitOp(chunk.OpTrue)
	case token.NIL:
		c.emitOp(chunk.OpNil)
	}
}

func (c *Compiler) grouping(canAssign bool) {
	c.expression()
	c.consume(token.RIGHT_PAREN, "Expect ')' after expression.")
}

func (c *Compiler) unary(canAssign bool) {
	op := c.previous.Kind
	c.parsePrecedence(precUnary)
	switch op {
	case token.MINUS:
		c.emitOp(chunk.OpNegate)
	case token.BANG:
		c.emitOp(chunk.OpNot)
	}
}

// binary compiles the right operand at one precedence level above the
// operator's own (left-associative), then emits the primitive opcode.
// !=, <=, >= are synthesized from == and the complementary comparison
// plus NOT, matching spec §4.3's "Operator lowering".
func (c *Compiler) binary(canAssign bool) {
	op := c.previous.Kind
	rule := ruleFor(op)
	c.parsePrecedence(rule.precedence + 1)

	switch op {
	case token.BANG_EQUAL:
		c.emitOp(chunk.OpEqual)
		c.emitOp(chunk.OpNot)
	case token.EQUAL_EQUAL:
		c.emitOp(chunk.OpEqual)
	case token.GREATER:
		c.emitOp(chunk.OpGreater)
	case token.GREATER_EQUAL:
		c.emitOp(chunk.OpLess)
		c.emitOp(chunk.OpNot)
	case token.LESS:
		c.emitOp(chunk.OpLess)
	case token.LESS_EQUAL:
		c.emitOp(chunk.OpGreater)
		c.emitOp(chunk.OpNot)
	case token.PLUS:
		c.emitOp(chunk.OpAdd)
	case token.MINUS:
		c.emitOp(chunk.OpSubtract)
	case token.STAR:
		c.emitOp(chunk.OpMultiply)
	case token.SLASH:
		c.emitOp(chunk.OpDivide)
	}
}

// and/or short-circuit by jumping over the right operand while leaving
// the short-circuiting value on the stack, per spec §4.3.
func (c *Compiler) and(canAssign bool) {
	endJump := c.emitJump(chunk.OpJumpIfFalse)
	c.emitOp(chunk.OpPop)
	c.parsePrecedence(precAnd)
	c.patchJump(endJump)
}

func (c *Compiler) or(canAssign bool) {
	elseJump := c.emitJump(chunk.OpJumpIfFalse)
	endJump := c.emitJump(chunk.OpJump)
	c.patchJump(elseJump)
	c.emitOp(chunk.OpPop)
	c.parsePrecedence(precOr)
	c.patchJump(endJump)
}

func (c *Compiler) call(canAssign bool) {
	argc := c.argumentList()
	c.emitOpByte(chunk.OpCall, argc)
}

func (c *Compiler) argumentList() byte {
	var argc int
	if !c.check(token.RIGHT_PAREN) {
		for {
			c.expression()
			if argc == maxArgs {
				c.error("Can't have more than 255 arguments.")
			}
			argc++
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RIGHT_PAREN, "Expect ')' after arguments.")
	return byte(argc)
}

func (c *Compiler) dot(canAssign bool) {
	c.consume(token.IDENTIFIER, "Expect property name after '.'.")
	name := c.identifierConstant(c.previous)

	switch {
	case canAssign && c.match(token.EQUAL):
		c.expression()
		c.emitOpByte(chunk.OpSetProperty, name)
	case c.match(token.LEFT_PAREN):
		argc := c.argumentList()
		c.emitOp(chunk.OpInvoke)
		c.emitByte(name)
		c.emitByte(argc)
	default:
		c.emitOpByte(chunk.OpGetProperty, name)
	}
}

func (c *Compiler) variable(canAssign bool) {
	c.namedVariable(c.previous, canAssign)
}

// namedVariable resolves name as local → upvalue → global (spec §4.3),
// then emits the matching GET/SET opcode, consuming a trailing `=` as
// an assignment only when canAssign permits it.
func (c *Compiler) namedVariable(name token.Token, canAssign bool) {
	var getOp, setOp chunk.OpCode
	var arg int

	if idx := resolveLocal(c.fc, name); idx != -1 {
		arg = idx
		getOp, setOp = chunk.OpGetLocal, chunk.OpSetLocal
		if idx >= 0 && c.fc.locals[idx].depth == -1 {
			c.error("Can't read local variable in its own initializer.")
		}
	} else if idx := c.resolveUpvalue(c.fc, name); idx != -1 {
		arg = idx
		getOp, setOp = chunk.OpGetUpvalue, chunk.OpSetUpvalue
	} else {
		arg = int(c.identifierConstant(name))
		getOp, setOp = chunk.OpGetGlobal, chunk.OpSetGlobal
	}

	if canAssign && c.match(token.EQUAL) {
		c.expression()
		c.emitOpByte(setOp, byte(arg))
	} else {
		c.emitOpByte(getOp, byte(arg))
	}
}

func (c *Compiler) this(canAssign bool) {
	if c.cc == nil {
		c.error("Can't use 'this' outside of a class.")
		return
	}
	c.variable(false)
}

func (c *Compiler) super(canAssign bool) {
	if c.cc == nil {
		c.error("Can't use 'super' outside of a class.")
	} else if !c.cc.hasSuperclass {
		c.error("Can't use 'super' in a class with no superclass.")
	}

	c.consume(token.DOT, "Expect '.' after 'super'.")
	c.consume(token.IDENTIFIER, "Expect superclass method name.")
	name := c.identifierConstant(c.previous)

	c.namedVariable(token.Token{Kind: token.IDENTIFIER, Lexeme: "this"}, false)
	if c.match(token.LEFT_PAREN) {
		argc := c.argumentList()
		c.namedVariable(token.Token{Kind: token.IDENTIFIER, Lexeme: "super"}, false)
		c.emitOp(chunk.OpSuperInvoke)
		c.emitByte(name)
		c.emitByte(argc)
	} else {
		c.namedVariable(token.Token{Kind: token.IDENTIFIER, Lexeme: "super"}, false)
		c.emitOpByte(chunk.OpGetSuper, name)
	}
}
