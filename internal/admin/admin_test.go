package admin

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	ID   string
	Name string
}

type fakeConfirmer struct {
	answer  bool
	err     error
	prompts []string
}

func (f *fakeConfirmer) Confirm(_ context.Context, prompt string) (bool, error) {
	f.prompts = append(f.prompts, prompt)
	return f.answer, f.err
}

type harness struct {
	table   *Table[row]
	out     *bytes.Buffer
	fetches int
	calls   []string
	rows    []row
}

func newHarness(answer bool, runErr error) (*harness, *fakeConfirmer) {
	h := &harness{out: &bytes.Buffer{}, rows: []row{{ID: "1", Name: "Shoes"}, {ID: "2", Name: "Hats"}}}
	conf := &fakeConfirmer{answer: answer}
	h.table = &Table[row]{
		Columns: []Column[row]{
			{Header: "id", Cell: func(r row) string { return r.ID }},
			{Header: "name", Cell: func(r row) string { return r.Name }},
		},
		Menu: &RowMenu[row]{
			Primary: &Action[row]{
				Label: "Restore",
				Run: func(_ context.Context, r row) error {
					h.calls = append(h.calls, "restore:"+r.ID)
					return runErr
				},
			},
			Destructive: &Action[row]{
				Label:  "Delete",
				Prompt: func(r row) string { return "Delete " + r.Name + "?" },
				Run: func(_ context.Context, r row) error {
					h.calls = append(h.calls, "delete:"+r.ID)
					if runErr != nil {
						return runErr
					}
					h.rows = h.rows[1:]
					return nil
				},
			},
		},
		Fetch: func(context.Context) ([]row, error) {
			h.fetches++
			return append([]row(nil), h.rows...), nil
		},
		Confirmer: conf,
		Out:       h.out,
	}
	return h, conf
}

func TestTable_RefreshRenders(t *testing.T) {
	h, _ := newHarness(true, nil)
	require.NoError(t, h.table.Refresh(context.Background()))

	lines := strings.Split(strings.TrimSpace(h.out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"ID", "NAME", "ACTIONS"}, strings.Fields(lines[0]))
	assert.Contains(t, lines[1], "Shoes")
	assert.Contains(t, lines[1], "Restore | Delete")
	assert.Len(t, h.table.Rows(), 2)
}

func TestTable_RenderEmptyWithoutMenu(t *testing.T) {
	tbl := &Table[row]{Columns: []Column[row]{{Header: "name", Cell: func(r row) string { return r.Name }}}}
	var buf bytes.Buffer
	require.NoError(t, tbl.Render(&buf))
	assert.Equal(t, "NAME\n(no rows)\n", buf.String())
}

func TestTable_RenderKeepsCellsOnOneLine(t *testing.T) {
	tbl := &Table[row]{Columns: []Column[row]{{Header: "name", Cell: func(r row) string { return r.Name }}}}
	tbl.rows = []row{{Name: "two\nlines\tand tab"}}
	var buf bytes.Buffer
	require.NoError(t, tbl.Render(&buf))
	assert.Equal(t, "NAME\ntwo lines and tab\n", buf.String())
}

func TestTable_RunDeclinedCallsNothing(t *testing.T) {
	h, conf := newHarness(false, nil)
	out, err := h.table.Run(context.Background(), Destructive, h.rows[0])
	require.NoError(t, err)
	assert.Equal(t, Declined, out)
	assert.Empty(t, h.calls)
	assert.Zero(t, h.fetches)
	assert.Equal(t, []string{"Delete Shoes?"}, conf.prompts)
}

func TestTable_RunAcceptedRefreshes(t *testing.T) {
	h, conf := newHarness(true, nil)
	out, err := h.table.Run(context.Background(), Destructive, h.rows[0])
	require.NoError(t, err)
	assert.Equal(t, Done, out)
	assert.Equal(t, []string{"delete:1"}, h.calls)
	assert.Equal(t, 1, h.fetches)
	assert.Equal(t, []row{{ID: "2", Name: "Hats"}}, h.table.Rows())
	assert.NotContains(t, h.out.String(), "Shoes")

	_, err = h.table.Run(context.Background(), Primary, h.rows[0])
	require.NoError(t, err)
	assert.Equal(t, "Restore?", conf.prompts[1])
}

func TestTable_RunFailureDoesNotRefresh(t *testing.T) {
	h, _ := newHarness(true, errors.New("Conflict: row was modified"))
	out, err := h.table.Run(context.Background(), Primary, h.rows[0])
	require.Error(t, err)
	assert.Equal(t, Failed, out)
	assert.Equal(t, "restore failed: Conflict: row was modified", err.Error())
	assert.Zero(t, h.fetches)
}

func TestTable_RunConfirmError(t *testing.T) {
	h, conf := newHarness(true, nil)
	conf.err = ErrNotInteractive
	_, err := h.table.Run(context.Background(), Destructive, h.rows[0])
	assert.ErrorIs(t, err, ErrNotInteractive)
	assert.Empty(t, h.calls)
}

func TestTable_RunMissingAction(t *testing.T) {
	h, _ := newHarness(true, nil)
	h.table.Menu.Destructive = nil
	_, err := h.table.Run(context.Background(), Destructive, h.rows[0])
	assert.ErrorIs(t, err, ErrNoAction)

	h.table.Menu = nil
	_, err = h.table.Run(context.Background(), Primary, h.rows[0])
	assert.ErrorIs(t, err, ErrNoAction)
}

func TestTerminalConfirmer(t *testing.T) {
	tests := []struct {
		name  string
		input string
		tty   bool
		yes   bool
		want  bool
		err   error
	}{
		{name: "yes", input: "yes\n", tty: true, want: true},
		{name: "y uppercase", input: " Y \n", tty: true, want: true},
		{name: "no", input: "n\n", tty: true},
		{name: "empty line", input: "\n", tty: true},
		{name: "eof", input: "", tty: true},
		{name: "answer without newline", input: "y", tty: true, want: true},
		{name: "not a terminal", input: "y\n", err: ErrNotInteractive},
		{name: "assume yes without terminal", yes: true, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			c := &TerminalConfirmer{
				In:         strings.NewReader(tt.input),
				Out:        &out,
				AssumeYes:  tt.yes,
				IsTerminal: func() bool { return tt.tty },
			}
			got, err := c.Confirm(context.Background(), "Purge Shoes?")
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			if tt.tty && !tt.yes {
				assert.Equal(t, "Purge Shoes? [y/N]: ", out.String())
			}
		})
	}
}

func TestTerminalConfirmer_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := &TerminalConfirmer{In: strings.NewReader("y\n"), Out: &bytes.Buffer{}, IsTerminal: func() bool { return true }}
	_, err := c.Confirm(ctx, "?")
	assert.ErrorIs(t, err, context.Canceled)
}
