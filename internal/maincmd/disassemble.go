package maincmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/kristofer/smog/pkg/chunk"
	"github.com/kristofer/smog/pkg/compiler"
	"github.com/kristofer/smog/pkg/gc"
	"github.com/kristofer/smog/pkg/object"
	"github.com/mna/mainer"
)

// Disassemble compiles a file and prints the resulting bytecode for the
// top-level script and every function it defines, adapting the
// teacher's disassembleFile to the new opcode table.
func (c *Cmd) Disassemble(ctx context.Context, stdio mainer.Stdio, args []string) error {
	source, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s\n", err)
		return err
	}

	collector := gc.New(gc.Config{})
	fn, diags, ok := compiler.Compile(string(source), collector)
	if !ok {
		for _, d := range diags {
			fmt.Fprintln(stdio.Stderr, d.String())
		}
		return fmt.Errorf("%d compile error(s)", len(diags))
	}

	disassembleRecursive(stdio.Stdout, fn)
	return nil
}

// disassembleRecursive prints fn's chunk and then, depth-first, every
// nested function it references as a constant, so one invocation dumps
// an entire compiled program rather than just its top-level script.
func disassembleRecursive(w io.Writer, fn *object.ObjFunction) {
	fmt.Fprint(w, chunk.Disassemble(fn.Chunk, fn.String()))
	for _, c := range fn.Chunk.Constants {
		if !c.IsObj() {
			continue
		}
		if nested, ok := c.AsObj().(*object.ObjFunction); ok {
			disassembleRecursive(w, nested)
		}
	}
}
