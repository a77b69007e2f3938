package admin

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrNotInteractive is returned when confirmation is required but stdin is
// not a terminal and AssumeYes is off.
var ErrNotInteractive = errors.New("confirmation needs an interactive terminal, pass --yes to skip it")

// TerminalConfirmer asks y/N questions on a terminal.
type TerminalConfirmer struct {
	In  io.Reader
	Out io.Writer
	// AssumeYes approves every prompt without reading input.
	AssumeYes bool
	// IsTerminal reports whether In is interactive.
	IsTerminal func() bool
}

// NewTerminalConfirmer reads from in and writes prompts to out.
func NewTerminalConfirmer(in *os.File, out io.Writer, assumeYes bool) *TerminalConfirmer {
	return &TerminalConfirmer{
		In:         in,
		Out:        out,
		AssumeYes:  assumeYes,
		IsTerminal: func() bool { return term.IsTerminal(int(in.Fd())) },
	}
}

// Confirm implements Confirmer. Only "y" and "yes" approve.
func (c *TerminalConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	if c.AssumeYes {
		return true, nil
	}
	if c.IsTerminal != nil && !c.IsTerminal() {
		return false, ErrNotInteractive
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	if _, err := fmt.Fprintf(c.Out, "%s [y/N]: ", prompt); err != nil {
		return false, err
	}
	line, err := bufio.NewReader(c.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
