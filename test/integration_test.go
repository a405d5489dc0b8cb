// Package test provides end-to-end integration tests for smog: whole
// programs run source-to-output through the real compiler and VM,
// mirroring the teacher's test/integration_test.go but exercising the
// bytecode-VM scenarios spec.md §8 names instead of the message-send
// interpreter the teacher tested.
package test

import (
	"bytes"
	"testing"

	"github.com/kristofer/smog/pkg/compiler"
	"github.com/kristofer/smog/pkg/gc"
	"github.com/kristofer/smog/pkg/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runProgram(t *testing.T, source string) string {
	t.Helper()
	collector := gc.New(gc.Config{})
	fn, diags, ok := compiler.Compile(source, collector)
	require.True(t, ok, "unexpected compile errors: %v", diags)

	var out bytes.Buffer
	machine := vm.New(collector, nil, 0)
	machine.Stdout = &out
	require.NoError(t, machine.Interpret(fn))
	return out.String()
}

func TestEndToEndScenarios(t *testing.T) {
	t.Run("ArithmeticAndPrecedence", func(t *testing.T) {
		out := runProgram(t, `print (1 + 2) * 3 - 4 / 2;`)
		assert.Equal(t, "7\n", out)
	})

	t.Run("StringsAndInterning", func(t *testing.T) {
		out := runProgram(t, `
			var greeting = "Hello, " + "World!";
			print greeting;
			print greeting == "Hello, World!";
		`)
		assert.Equal(t, "Hello, World!\ntrue\n", out)
	})

	t.Run("RecursionAndControlFlow", func(t *testing.T) {
		out := runProgram(t, `
			fun fact(n) {
				if (n <= 1) return 1;
				return n * fact(n - 1);
			}
			print fact(6);
		`)
		assert.Equal(t, "720\n", out)
	})

	t.Run("ClosuresShareUpvalueState", func(t *testing.T) {
		out := runProgram(t, `
			fun makeCounter() {
				var count = 0;
				fun increment() {
					count = count + 1;
					return count;
				}
				return increment;
			}
			var a = makeCounter();
			var b = makeCounter();
			print a();
			print a();
			print b();
		`)
		assert.Equal(t, "1\n2\n1\n", out)
	})

	t.Run("ClassesInheritanceAndSuper", func(t *testing.T) {
		out := runProgram(t, `
			class Animal {
				init(name) { this.name = name; }
				speak() { print this.name + " makes a sound."; }
			}
			class Dog < Animal {
				speak() {
					super.speak();
					print this.name + " barks.";
				}
			}
			var d = Dog("Rex");
			d.speak();
		`)
		assert.Equal(t, "Rex makes a sound.\nRex barks.\n", out)
	})

	t.Run("ForLoopDesugaring", func(t *testing.T) {
		out := runProgram(t, `
			var sum = 0;
			for (var i = 1; i <= 5; i = i + 1) {
				sum = sum + i;
			}
			print sum;
		`)
		assert.Equal(t, "15\n", out)
	})

	t.Run("LogicalOperatorsShortCircuit", func(t *testing.T) {
		out := runProgram(t, `
			fun sideEffect(v) { print v; return v; }
			if (sideEffect(false) and sideEffect(true)) {}
			if (sideEffect(true) or sideEffect(false)) {}
		`)
		assert.Equal(t, "false\ntrue\n", out)
	})
}
