package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/kristofer/smog/internal/config"
	"github.com/kristofer/smog/pkg/compiler"
	"github.com/kristofer/smog/pkg/gc"
	"github.com/kristofer/smog/pkg/vm"
	"github.com/mna/mainer"
)

func (c *Cmd) Run(ctx context.Context, stdio mainer.Stdio, args []string) error {
	source, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s\n", err)
		return err
	}
	return runSource(ctx, stdio, string(source))
}

func runSource(ctx context.Context, stdio mainer.Stdio, source string) error {
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

	fn, diags, ok := compiler.Compile(source, collector)
	if !ok {
		for _, d := range diags {
			fmt.Fprintln(stdio.Stderr, d.String())
		}
		return fmt.Errorf("%d compile error(s)", len(diags))
	}

	machine := vm.New(collector, ctx, cfg.MaxSteps)
	machine.Stdout = stdio.Stdout
	if err := machine.Interpret(fn); err != nil {
		fmt.Fprintf(stdio.Stderr, "%s\n", err)
		return err
	}
	return nil
}
