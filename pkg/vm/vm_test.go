package vm_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/kristofer/smog/pkg/compiler"
	"github.com/kristofer/smog/pkg/gc"
	"github.com/kristofer/smog/pkg/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run compiles and executes source, returning everything printed and
// any runtime error. A compile error fails the test immediately, since
// these helpers are only used by tests exercising runtime behavior.
func run(t *testing.T, source string) (string, error) {
	t.Helper()
	collector := gc.New(gc.Config{})
	fn, diags, ok := compiler.Compile(source, collector)
	require.True(t, ok, "unexpected compile errors: %v", diags)

	var out bytes.Buffer
	machine := vm.New(collector, nil, 0)
	machine.Stdout = &out
	err := machine.Interpret(fn)
	return out.String(), err
}

func TestArithmeticPrecedence(t *testing.T) {
	out, err := run(t, `print 1 + 2 * 3;`)
	require.NoError(t, err)
	assert.Equal(t, "7\n", out)
}

func TestStringConcatenation(t *testing.T) {
	out, err := run(t, `var a = "foo"; var b = "bar"; print a + b;`)
	require.NoError(t, err)
	assert.Equal(t, "foobar\n", out)
}

func TestRecursiveFibonacci(t *testing.T) {
	out, err := run(t, `fun fib(n){ if (n < 2) return n; return fib(n-1) + fib(n-2);} print fib(10);`)
	require.NoError(t, err)
	assert.Equal(t, "55\n", out)
}

func TestClosureCapturesAndMutatesUpvalue(t *testing.T) {
	out, err := run(t, `fun make(){ var x = 0; fun inc(){ x = x + 1; return x; } return inc; } var c = make(); print c(); print c(); print c();`)
	require.NoError(t, err)
	assert.Equal(t, "1\n2\n3\n", out)
}

func TestInheritanceAndSuper(t *testing.T) {
	out, err := run(t, `class A { greet() { print "hi"; } } class B < A { greet() { super.greet(); print "there"; } } B().greet();`)
	require.NoError(t, err)
	assert.Equal(t, "hi\nthere\n", out)
}

func TestInitializerSetsFields(t *testing.T) {
	out, err := run(t, `class P { init(n){ this.n = n; } } var p = P(42); print p.n;`)
	require.NoError(t, err)
	assert.Equal(t, "42\n", out)
}

func TestInternedStringEquality(t *testing.T) {
	out, err := run(t, `var a = "ab"; var b = "a" + "b"; print a == b;`)
	require.NoError(t, err)
	assert.Equal(t, "true\n", out)
}

func TestCallingNonCallableIsRuntimeError(t *testing.T) {
	_, err := run(t, `var x = 1; x();`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Can only call functions and classes.")
}

func TestArityMismatchIsRuntimeError(t *testing.T) {
	_, err := run(t, `fun f(a, b) { return a + b; } f(1);`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Expected 2 arguments but got 1.")
}

func TestArithmeticOnNonNumbersIsRuntimeError(t *testing.T) {
	_, err := run(t, `print 1 + "a";`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Operands must be two numbers or two strings.")
}

func TestUndefinedVariableIsRuntimeError(t *testing.T) {
	_, err := run(t, `print undefined_name;`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Undefined variable")
}

func TestRuntimeErrorIncludesStackTrace(t *testing.T) {
	_, err := run(t, `
		fun inner() { return 1 + "x"; }
		fun outer() { return inner(); }
		outer();
	`)
	require.Error(t, err)
	lines := strings.Split(err.Error(), "\n")
	require.GreaterOrEqual(t, len(lines), 3, "expected a frame per call site: %s", err.Error())
	assert.Contains(t, err.Error(), "in inner()")
	assert.Contains(t, err.Error(), "in outer()")
}

func TestBoundMethodCanBeStoredAndCalledLater(t *testing.T) {
	out, err := run(t, `
		class Counter {
			init() { this.n = 0; }
			bump() { this.n = this.n + 1; return this.n; }
		}
		var c = Counter();
		var m = c.bump;
		print m();
		print m();
	`)
	require.NoError(t, err)
	assert.Equal(t, "1\n2\n", out)
}

func TestFieldShadowsMethodOnRead(t *testing.T) {
	out, err := run(t, `
		class Box { value() { return "method"; } }
		var b = Box();
		b.value = "field";
		print b.value;
	`)
	require.NoError(t, err)
	assert.Equal(t, "field\n", out)
}

func TestClockNativeReturnsNumber(t *testing.T) {
	out, err := run(t, `print clock() >= 0;`)
	require.NoError(t, err)
	assert.Equal(t, "true\n", out)
}
