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

// TestGCStressDoesNotCorruptExecution runs programs that allocate heavily
// (strings, closures, instances) with gc.Config.Stress set, so a
// collection runs before nearly every allocation. A soundness bug in
// MarkRoots or blacken would show up as a wrong answer or a crash here,
// not merely as a conservative garbage estimate.
func TestGCStressDoesNotCorruptExecution(t *testing.T) {
	collector := gc.New(gc.Config{Stress: true})
	source := `
		class Node {
			init(value, next) {
				this.value = value;
				this.next = next;
			}
		}

		fun build(n) {
			var head = nil;
			var i = n;
			while (i > 0) {
				head = Node(i, head);
				i = i - 1;
			}
			return head;
		}

		fun sum(node) {
			var total = 0;
			while (node != nil) {
				total = total + node.value;
				node = node.next;
			}
			return total;
		}

		var list = build(200);
		print sum(list);

		fun makeAdder(n) {
			fun adder(x) { return x + n; }
			return adder;
		}

		var adders = nil;
		var i = 0;
		var total = 0;
		while (i < 50) {
			var add = makeAdder(i);
			total = total + add(1);
			i = i + 1;
		}
		print total;

		var s = "";
		var j = 0;
		while (j < 20) {
			s = s + "x";
			j = j + 1;
		}
		print s;
	`

	fn, diags, ok := compiler.Compile(source, collector)
	require.True(t, ok, "unexpected compile errors: %v", diags)

	var out bytes.Buffer
	machine := vm.New(collector, nil, 0)
	machine.Stdout = &out
	require.NoError(t, machine.Interpret(fn))

	lines := bytes.Split(bytes.TrimRight(out.Bytes(), "\n"), []byte("\n"))
	require.Len(t, lines, 3)
	assert.Equal(t, "20100", string(lines[0])) // sum(1..200)
	assert.Equal(t, "1275", string(lines[1]))  // sum(0..49) + 50
	assert.Equal(t, "xxxxxxxxxxxxxxxxxxxx", string(lines[2]))
}

// TestGCStressReclaimsUnreachableStrings exercises the weak-reference
// string-interning sweep directly: a loop builds a concatenated string
// held only by a block-scoped local, while a global holds another. The
// global's string must survive to be printed, and once the run is over a
// collection must drop the concatenated string from the intern table.
func TestGCStressReclaimsUnreachableStrings(t *testing.T) {
	collector := gc.New(gc.Config{Stress: true})
	source := `
		var kept = "durable";
		var i = 0;
		while (i < 100) {
			var scratch = "throwaway-" + "value";
			i = i + 1;
		}
		print kept;
	`
	fn, diags, ok := compiler.Compile(source, collector)
	require.True(t, ok, "unexpected compile errors: %v", diags)

	var out bytes.Buffer
	machine := vm.New(collector, nil, 0)
	machine.Stdout = &out
	require.NoError(t, machine.Interpret(fn))
	assert.Equal(t, "durable\n", out.String())

	scratch := collector.Intern("throwaway-value")
	collector.Collect()
	assert.NotSame(t, scratch, collector.Intern("throwaway-value"), "unreachable interned string must be swept")
}
