package commands

import (
	"fmt"

	"github.com/oakmere/magickcache/pkg/magickcache"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <repo-path> [iri]",
	Short: "Delete a resource, or the whole repository when no IRI is given",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepository(args[0])
		if err != nil {
			return err
		}
		defer repo.Destroy()

		if len(args) == 1 {
			if err := repo.DeleteMagickCache(); err != nil {
				return fmt.Errorf("delete repository %q: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted repository %s\n", args[0])
			return nil
		}

		res := magickcache.AcquireResource(repo, args[1])
		defer res.Destroy()
		if err := repo.DeleteResource(res); err != nil {
			return fmt.Errorf("delete resource %q: %w", args[1], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[1])
		return nil
	},
}
