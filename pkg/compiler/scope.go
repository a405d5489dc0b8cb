package compiler

import (
	"github.com/kristofer/smog/pkg/chunk"
	"github.com/kristofer/smog/pkg/token"
)

func (c *Compiler) beginScope() { c.fc.scopeDepth++ }

// endScope pops every local declared in the scope being left. A
// captured local is closed rather than popped, so any closure over it
// keeps working once the stack slot itself is reused (spec §4.3's
// "Scope and variables").
func (c *Compiler) endScope() {
	c.fc.scopeDepth--
	locals := c.fc.locals
	for len(locals) > 0 && locals[len(locals)-1].depth > c.fc.scopeDepth {
		if locals[len(locals)-1].isCaptured {
			c.emitOp(chunk.OpCloseUpvalue)
		} else {
			c.emitOp(chunk.OpPop)
		}
		locals = locals[:len(locals)-1]
	}
	c.fc.locals = locals
}

// declareVariable adds name as a local in the current scope. At global
// scope (depth 0) this is a no-op: globals live in the VM's globals
// table by name, not in a local slot.
func (c *Compiler) declareVariable(name token.Token) {
	if c.fc.scopeDepth == 0 {
		return
	}
	for i := len(c.fc.locals) - 1; i >= 0; i-- {
		l := c.fc.locals[i]
		if l.depth != -1 && l.depth < c.fc.scopeDepth {
			break
		}
		if l.name.Lexeme == name.Lexeme {
			c.error("Already a variable with this name in this scope.")
		}
	}
	c.addLocal(name)
}

func (c *Compiler) addLocal(name token.Token) {
	if len(c.fc.locals) >= maxLocals {
		c.error("Too many local variables in function.")
		return
	}
	c.fc.locals = append(c.fc.locals, local{name: name, depth: -1})
}

// parseVariable consumes an identifier, declares it if we're in a local
// scope, and returns the constant-pool index of its name for
// DEFINE_GLOBAL (meaningless but harmless at local scope).
func (c *Compiler) parseVariable(message string) byte {
	c.consume(token.IDENTIFIER, message)
	name := c.previous
	c.declareVariable(name)
	if c.fc.scopeDepth > 0 {
		return 0
	}
	return c.identifierConstant(name)
}

// markInitialized flips the most recently declared local from
// "declared, not yet defined" (depth -1) to the current scope depth, or
// does nothing at global scope where there is no local slot to mark.
func (c *Compiler) markInitialized() {
	if c.fc.scopeDepth == 0 {
		return
	}
	c.fc.locals[len(c.fc.locals)-1].depth = c.fc.scopeDepth
}

func (c *Compiler) defineVariable(global byte) {
	if c.fc.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitOpByte(chunk.OpDefineGlobal, global)
}

// resolveLocal finds name among fc's locals, innermost first. Reading a
// local still marked depth -1 (its own initializer) is a compile error.
func resolveLocal(fc *funcCompiler, name token.Token) int {
	for i := len(fc.locals) - 1; i >= 0; i-- {
		if fc.locals[i].name.Lexeme == name.Lexeme {
			return i
		}
	}
	return -1
}

// resolveUpvalue walks the funcCompiler chain outward looking for name
// as a local of an enclosing function, registering an upvalue at every
// level between the defining scope and the use site, and marking the
// captured local so endScope closes it instead of just popping it.
func (c *Compiler) resolveUpvalue(fc *funcCompiler, name token.Token) int {
	if fc.enclosing == nil {
		return -1
	}
	if idx := resolveLocal(fc.enclosing, name); idx != -1 {
		fc.enclosing.locals[idx].isCaptured = true
		return c.addUpvalue(fc, uint8(idx), true)
	}
	if idx := c.resolveUpvalue(fc.enclosing, name); idx != -1 {
		return c.addUpvalue(fc, uint8(idx), false)
	}
	return -1
}

func (c *Compiler) addUpvalue(fc *funcCompiler, index uint8, isLocal bool) int {
	for i, up := range fc.upvalues {
		if up.index == index && up.isLocal == isLocal {
			return i
		}
	}
	if len(fc.upvalues) >= maxUpvalues {
		c.error("Too many closure variables in function.")
		return 0
	}
	fc.upvalues = append(fc.upvalues, upvalueRef{index: index, isLocal: isLocal})
	fc.function.UpvalueCount = len(fc.upvalues)
	return len(fc.upvalues) - 1
}
