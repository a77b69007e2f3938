package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/simp-lee/shopbase/internal/admin"
	"github.com/simp-lee/shopbase/internal/client"
)

// resourceCmd carries what every subcommand of one resource needs.
type resourceCmd[T any, S any] struct {
	g    *globals
	spec resourceSpec[T, S]
}

func newResourceCmd[T any, S any](g *globals, spec resourceSpec[T, S]) *cobra.Command {
	rc := &resourceCmd[T, S]{g: g, spec: spec}

	cmd := &cobra.Command{
		Use:     spec.name,
		Aliases: spec.aliases,
		Short:   "Manage " + spec.name,
	}
	cmd.AddCommand(
		rc.listCmd(false),
		rc.listCmd(true),
		rc.getCmd(),
		rc.deleteCmd(),
		rc.restoreCmd(),
		rc.purgeCmd(),
		rc.statusCmd(),
		rc.seedCmd(),
	)
	return cmd
}

func (rc *resourceCmd[T, S]) resource(cmd *cobra.Command) (*client.Resource[T, S], error) {
	c, err := rc.g.client(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	return client.NewResource[T, S](c, rc.spec.name), nil
}

// table builds the view of the active set or of the trash.
func (rc *resourceCmd[T, S]) table(cmd *cobra.Command, res *client.Resource[T, S], trash bool, p client.ListParams, menu *admin.RowMenu[S]) *admin.Table[S] {
	return &admin.Table[S]{
		Columns: rc.spec.columns,
		Menu:    menu,
		Fetch: func(ctx context.Context) ([]S, error) {
			list := res.List
			if trash {
				list = res.Trash
			}
			page, err := list(ctx, p)
			if err != nil {
				return nil, err
			}
			return page.Items, nil
		},
		Confirmer: rc.g.confirmer(cmd.OutOrStdout()),
		Out:       cmd.OutOrStdout(),
	}
}

func (rc *resourceCmd[T, S]) listCmd(trash bool) *cobra.Command {
	var p client.ListParams
	use, short := "list", "List active "+rc.spec.name
	if trash {
		use, short = "trash", "List trashed "+rc.spec.name
	}
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := rc.resource(cmd)
			if err != nil {
				return err
			}
			return rc.table(cmd, res, trash, p, nil).Refresh(commandContext(cmd))
		},
	}
	f := cmd.Flags()
	f.IntVar(&p.Page, "page", 0, "page number, starting at 1")
	f.IntVar(&p.PageSize, "page-size", 0, "rows per page")
	f.StringVarP(&p.Q, "query", "q", "", "search text")
	f.StringVar(&p.Sort, "sort", "", `sort order such as "name:asc"`)
	if !trash {
		f.StringVar(&p.Status, "status", "", "filter by status: active or inactive")
	}
	return cmd
}

func (rc *resourceCmd[T, S]) getCmd() *cobra.Command {
	var trashed bool
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one " + singular(rc.spec.name) + " as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			res, err := rc.resource(cmd)
			if err != nil {
				return err
			}
			get := res.Get
			if trashed {
				get = res.GetTrashed
			}
			item, err := get(commandContext(cmd), id)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), item)
		},
	}
	cmd.Flags().BoolVar(&trashed, "trashed", false, "look the id up in the trash")
	return cmd
}

func (rc *resourceCmd[T, S]) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Move one " + singular(rc.spec.name) + " to the trash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rc.runOnRow(cmd, args[0], false, admin.Destructive, &admin.RowMenu[S]{
				Destructive: &admin.Action[S]{
					Label:  "Delete",
					Prompt: rc.prompt("Move %s %q to the trash?"),
					Run: func(ctx context.Context, row S) error {
						res, err := rc.resource(cmd)
						if err != nil {
							return err
						}
						return res.Delete(ctx, rc.spec.id(row))
					},
				},
			})
		},
	}
}

func (rc *resourceCmd[T, S]) restoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <id>",
		Short: "Bring one " + singular(rc.spec.name) + " back from the trash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rc.runOnRow(cmd, args[0], true, admin.Primary, &admin.RowMenu[S]{
				Primary: &admin.Action[S]{
					Label:  "Restore",
					Prompt: rc.prompt("Restore %s %q?"),
					Run: func(ctx context.Context, row S) error {
						res, err := rc.resource(cmd)
						if err != nil {
							return err
						}
						_, err = res.Restore(ctx, rc.spec.id(row))
						return err
					},
				},
			})
		},
	}
}

func (rc *resourceCmd[T, S]) purgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge <id>",
		Short: "Permanently remove one trashed " + singular(rc.spec.name),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rc.runOnRow(cmd, args[0], true, admin.Destructive, &admin.RowMenu[S]{
				Destructive: &admin.Action[S]{
					Label:  "Purge",
					Prompt: rc.prompt("Permanently remove %s %q? This cannot be undone."),
					Run: func(ctx context.Context, row S) error {
						res, err := rc.resource(cmd)
						if err != nil {
							return err
						}
						return res.Purge(ctx, rc.spec.id(row))
					},
				},
			})
		},
	}
}

func (rc *resourceCmd[T, S]) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "status <id> active|inactive",
		Short:     "Activate or deactivate one " + singular(rc.spec.name),
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"active", "inactive"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var active bool
			switch args[1] {
			case "active", "on":
				active = true
			case "inactive", "off":
			default:
				return fmt.Errorf("status must be active or inactive, got %q", args[1])
			}
			label := "Deactivate"
			if active {
				label = "Activate"
			}
			return rc.runOnRow(cmd, args[0], false, admin.Primary, &admin.RowMenu[S]{
				Primary: &admin.Action[S]{
					Label:  label,
					Prompt: rc.prompt(label + " %s %q?"),
					Run: func(ctx context.Context, row S) error {
						res, err := rc.resource(cmd)
						if err != nil {
							return err
						}
						_, err = res.SetStatus(ctx, rc.spec.id(row), rc.spec.version(row), active)
						return err
					},
				},
			})
		},
	}
}

// runOnRow loads the row, then runs the menu action through an admin table
// showing the view the row lives in.
func (rc *resourceCmd[T, S]) runOnRow(cmd *cobra.Command, rawID string, trashed bool, kind admin.ActionKind, menu *admin.RowMenu[S]) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}
	res, err := rc.resource(cmd)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)

	get := res.Get
	if trashed {
		get = res.GetTrashed
	}
	item, err := get(ctx, id)
	if err != nil {
		return err
	}
	row := rc.spec.summarize(item)

	outcome, err := rc.table(cmd, res, trashed, client.ListParams{}, menu).Run(ctx, kind, row)
	if err != nil {
		return err
	}
	if outcome == admin.Declined {
		fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
	}
	return nil
}

func (rc *resourceCmd[T, S]) prompt(format string) func(S) string {
	return func(row S) string {
		return fmt.Sprintf(format, singular(rc.spec.name), rc.spec.label(row))
	}
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q: %w", raw, err)
	}
	return id, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func singular(name string) string {
	switch name {
	case "categories":
		return "category"
	case "tags":
		return "tag"
	case "products":
		return "product"
	}
	return name
}
