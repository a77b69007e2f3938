// Package admin binds catalog rows to a text table with per-row actions.
// Every action is confirmed before its mutation runs, and a successful
// mutation is followed by a refresh of the current view.
package admin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Column projects one cell of a row.
type Column[T any] struct {
	Header string
	Cell   func(T) string
}

// Action is a mutating call offered for a row.
type Action[T any] struct {
	Label string
	// Prompt builds the confirmation question for row.
	Prompt func(T) string
	Run    func(ctx context.Context, row T) error
}

// RowMenu offers at most two actions per row: a primary one such as edit or
// restore, and a destructive one such as delete or purge.
type RowMenu[T any] struct {
	Primary     *Action[T]
	Destructive *Action[T]
}

// ActionKind selects an entry of a RowMenu.
type ActionKind int

const (
	Primary ActionKind = iota
	Destructive
)

func (k ActionKind) String() string {
	if k == Destructive {
		return "destructive"
	}
	return "primary"
}

// Outcome reports what Run did.
type Outcome int

const (
	// Declined means the user said no and nothing was called.
	Declined Outcome = iota
	// Done means the mutation succeeded and the view was refreshed.
	Done
	// Failed means the mutation was called and returned an error.
	Failed
)

// ErrNoAction is returned when the requested menu entry is not configured.
var ErrNoAction = errors.New("no such action for this table")

// Confirmer asks the user to approve an action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// Table renders rows loaded by Fetch and runs menu actions on them.
type Table[T any] struct {
	Columns   []Column[T]
	Menu      *RowMenu[T]
	Fetch     func(ctx context.Context) ([]T, error)
	Confirmer Confirmer
	Out       io.Writer

	rows []T
}

// Rows returns the rows of the last refresh.
func (t *Table[T]) Rows() []T {
	return t.rows
}

// Refresh reloads the rows and renders them to Out.
func (t *Table[T]) Refresh(ctx context.Context) error {
	if t.Fetch == nil {
		return errors.New("table has no fetch function")
	}
	rows, err := t.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("load rows: %w", err)
	}
	t.rows = rows
	if t.Out == nil {
		return nil
	}
	return t.Render(t.Out)
}

// Render writes the current rows as aligned columns. When a menu is set, a
// trailing ACTIONS column lists its labels.
func (t *Table[T]) Render(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	headers := make([]string, 0, len(t.Columns)+1)
	for _, c := range t.Columns {
		headers = append(headers, strings.ToUpper(c.Header))
	}
	actions := t.menuLabels()
	if actions != "" {
		headers = append(headers, "ACTIONS")
	}
	fmt.Fprintln(tw, strings.Join(headers, "\t"))

	for _, row := range t.rows {
		cells := make([]string, 0, len(headers))
		for _, c := range t.Columns {
			cells = append(cells, sanitize(c.Cell(row)))
		}
		if actions != "" {
			cells = append(cells, actions)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}

	if len(t.rows) == 0 {
		fmt.Fprintln(tw, "(no rows)")
	}
	return tw.Flush()
}

// Run confirms and executes one menu action for row. A declined
// confirmation calls nothing. A successful call refreshes the view.
func (t *Table[T]) Run(ctx context.Context, kind ActionKind, row T) (Outcome, error) {
	action := t.action(kind)
	if action == nil || action.Run == nil {
		return Declined, fmt.Errorf("%s: %w", kind, ErrNoAction)
	}
	if t.Confirmer == nil {
		return Declined, errors.New("table has no confirmer")
	}

	prompt := action.Label + "?"
	if action.Prompt != nil {
		prompt = action.Prompt(row)
	}
	ok, err := t.Confirmer.Confirm(ctx, prompt)
	if err != nil {
		return Declined, fmt.Errorf("confirm %s: %w", strings.ToLower(action.Label), err)
	}
	if !ok {
		return Declined, nil
	}

	if err := action.Run(ctx, row); err != nil {
		return Failed, fmt.Errorf("%s failed: %w", strings.ToLower(action.Label), err)
	}

	if err := t.Refresh(ctx); err != nil {
		return Done, err
	}
	return Done, nil
}

func (t *Table[T]) action(kind ActionKind) *Action[T] {
	if t.Menu == nil {
		return nil
	}
	if kind == Destructive {
		return t.Menu.Destructive
	}
	return t.Menu.Primary
}

func (t *Table[T]) menuLabels() string {
	if t.Menu == nil {
		return ""
	}
	var labels []string
	if t.Menu.Primary != nil {
		labels = append(labels, t.Menu.Primary.Label)
	}
	if t.Menu.Destructive != nil {
		labels = append(labels, t.Menu.Destructive.Label)
	}
	return strings.Join(labels, " | ")
}

// sanitize keeps a cell on one line so tabwriter alignment holds.
func sanitize(s string) string {
	return strings.NewReplacer("\t", " ", "\n", " ", "\r", " ").Replace(s)
}
