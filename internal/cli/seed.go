package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// seedCmd creates every entry of a YAML list. Keys use the API field names,
// for example priceMinor or parentId.
func (rc *resourceCmd[T, S]) seedCmd() *cobra.Command {
	var keepGoing bool
	cmd := &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Create " + rc.spec.name + " from a YAML list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := readSeedFile(args[0])
			if err != nil {
				return err
			}
			res, err := rc.resource(cmd)
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)
			out := cmd.OutOrStdout()

			failed := 0
			for i, row := range rows {
				item, err := res.Create(ctx, row)
				if err != nil {
					failed++
					fmt.Fprintf(out, "entry %d: %v\n", i+1, err)
					if !keepGoing {
						return fmt.Errorf("seed stopped at entry %d of %d", i+1, len(rows))
					}
					continue
				}
				s := rc.spec.summarize(item)
				fmt.Fprintf(out, "created %s %s\n", rc.spec.id(s), rc.spec.label(s))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d entries failed", failed, len(rows))
			}
			fmt.Fprintf(out, "%d %s created\n", len(rows), rc.spec.name)
			return nil
		},
	}
	cmd.Flags().BoolVar(&keepGoing, "keep-going", false, "continue after a failed entry")
	return cmd
}

func readSeedFile(path string) ([]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var rows []map[string]any
	if err := yaml.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, errors.New("seed file has no entries")
	}
	return rows, nil
}
