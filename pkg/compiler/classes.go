package compiler

import (
	"github.com/kristofer/smog/pkg/chunk"
	"github.com/kristofer/smog/pkg/token"
)

// classDeclaration compiles `class Name [< Super] { method* }` per spec
// §4.3: emit CLASS, bind the name, optionally open a scope binding a
// synthetic `super` local and emit INHERIT, then compile each method
// and emit METHOD to install it, finally closing the superclass scope.
func (c *Compiler) classDeclaration() {
	c.consume(token.IDENTIFIER, "Expect class name.")
	nameTok := c.previous
	nameConst := c.identifierConstant(nameTok)
	c.declareVariable(nameTok)

	c.emitOpByte(chunk.OpClass, nameConst)
	c.defineVariable(nameConst)

	c.cc = &classCompiler{enclosing: c.cc}

	if c.match(token.LESS) {
		c.consume(token.IDENTIFIER, "Expect superclass name.")
		c.variable(false)
		if c.previous.Lexeme == nameTok.Lexeme {
			c.error("A class can't inherit from itself.")
		}

		c.beginScope()
		c.addLocal(token.Token{Kind: token.IDENTIFIER, Lexeme: "super"})
		c.defineVariable(0)

		c.namedVariable(nameTok, false)
		c.emitOp(chunk.OpInherit)
		c.cc.hasSuperclass = true
	}

	c.namedVariable(nameTok, false)
	c.consume(token.LEFT_BRACE, "Expect '{' before class body.")
	for !c.check(token.RIGHT_BRACE) && !c.check(token.EOF) {
		c.method()
	}
	c.consume(token.RIGHT_BRACE, "Expect '}' after class body.")
	c.emitOp(chunk.OpPop) // the class value pushed by the namedVariable read above

	if c.cc.hasSuperclass {
		c.endScope()
	}
	c.cc = c.cc.enclosing
}

func (c *Compiler) method() {
	c.consume(token.IDENTIFIER, "Expect method name.")
	name := c.previous
	nameConst := c.identifierConstant(name)

	typ := funcTypeMethod
	if name.Lexeme == "init" {
		typ = funcTypeInitializer
	}
	c.function(typ)
	c.emitOpByte(chunk.OpMethod, nameConst)
}
