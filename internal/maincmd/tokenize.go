package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/kristofer/smog/pkg/scanner"
	"github.com/kristofer/smog/pkg/token"
	"github.com/mna/mainer"
)

// Tokenize prints one line per token the scanner produces for the given
// file, the same debugging use nenuphar's own tokenize command serves.
func (c *Cmd) Tokenize(ctx context.Context, stdio mainer.Stdio, args []string) error {
	source, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s\n", err)
		return err
	}

	s := scanner.New(string(source))
	for {
		tok := s.NextToken()
		fmt.Fprintln(stdio.Stdout, tok.String())
		if tok.Kind == token.EOF {
			break
		}
	}
	return nil
}
