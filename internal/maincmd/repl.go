package maincmd

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/kristofer/smog/internal/config"
	"github.com/kristofer/smog/pkg/compiler"
	"github.com/kristofer/smog/pkg/gc"
	"github.com/kristofer/smog/pkg/vm"
	"github.com/mna/mainer"
)

// Repl runs an interactive read-eval-print loop. Unlike the teacher's
// REPL (which keeps one persistent compiler so locals survive across
// inputs) smog's single-pass compiler has no incremental-compile
// entrypoint, so each line is compiled as its own top-level script; a
// single collector and VM persist across lines so `var` declarations
// (which become globals at the top level) and class/function
// definitions remain visible to later input.
func (c *Cmd) Repl(ctx context.Context, stdio mainer.Stdio, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s\n", err)
		return err
	}

	collector := gc.New(gc.Config{
		Stress:             cfg.GCStress,
		HeapGrowFactor:     cfg.GCHeapGrowFactor,
		InitialThresholdBy: cfg.GCInitialThreshold,
	})
	machine := vm.New(collector, ctx, cfg.MaxSteps)
	machine.Stdout = stdio.Stdout

	fmt.Fprintf(stdio.Stdout, "smog %s\n", c.BuildVersion)
	scanner := bufio.NewScanner(stdio.Stdin)
	for {
		fmt.Fprint(stdio.Stdout, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == ":quit" || line == ":exit" {
			break
		}

		fn, diags, ok := compiler.Compile(line, collector)
		if !ok {
			for _, d := range diags {
				fmt.Fprintln(stdio.Stderr, d.String())
			}
			continue
		}
		if err := machine.Interpret(fn); err != nil {
			fmt.Fprintf(stdio.Stderr, "%s\n", err)
		}
	}
	return scanner.Err()
}
