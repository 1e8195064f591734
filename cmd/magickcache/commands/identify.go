package commands

import (
	"fmt"

	"github.com/oakmere/magickcache/internal/bytesize"
	"github.com/oakmere/magickcache/internal/cli/output"
	"github.com/oakmere/magickcache/pkg/magickcache"
	"github.com/spf13/cobra"
)

var identifyTable bool

var identifyCmd = &cobra.Command{
	Use:     "identify <repo-path> [iri-prefix]",
	Aliases: []string{"list"},
	Short:   "List resources and their metadata",
	Args:    cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepository(args[0])
		if err != nil {
			return err
		}
		defer repo.Destroy()

		prefix := ""
		if len(args) == 2 {
			prefix = args[1]
		}

		if !identifyTable {
			out := magickcache.IdentifyResources(cmd.OutOrStdout())
			if err := repo.IterateResources(prefix, out); err != nil {
				return fmt.Errorf("identify: %w", err)
			}
			return nil
		}

		table := output.NewResourceTable()
		collect := func(repo *magickcache.Repository, res *magickcache.Resource) (bool, error) {
			expired, err := repo.IsExpired(res)
			if err != nil {
				return false, err
			}
			cols, rows := res.GetSize()
			kind := fmt.Sprintf("%s [%dx%d]", res.GetType(), cols, rows)
			size := bytesize.ByteSize(res.GetExtent()).String()
			ttl := "immortal"
			if res.GetTTL() != 0 {
				ttl = fmt.Sprintf("%ds", res.GetTTL())
				if expired {
					ttl += " (expired)"
				}
			}
			table.Add(res.GetIRI(), kind, size, ttl, res.GetTimestamp().UTC().Format("2006-01-02T15:04:05Z"))
			return true, nil
		}
		if err := repo.IterateResources(prefix, collect); err != nil {
			return fmt.Errorf("identify: %w", err)
		}
		return output.PrintTable(cmd.OutOrStdout(), table)
	},
}

func init() {
	identifyCmd.Flags().BoolVar(&identifyTable, "table", false, "render output as an aligned table instead of one line per resource")
}
