package commands

import (
	"fmt"

	"github.com/oakmere/magickcache/pkg/magickcache"
	"github.com/spf13/cobra"
)

var expireCmd = &cobra.Command{
	Use:   "expire <repo-path> [iri-prefix]",
	Short: "Delete every resource whose TTL has elapsed",
	Args:  cobra.RangeArgs(1, 2),
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

		expired := 0
		err = repo.IterateResources(prefix, func(r *magickcache.Repository, res *magickcache.Resource) (bool, error) {
			wasExpired, err := r.IsExpired(res)
			if err != nil {
				return false, err
			}
			if !wasExpired {
				return true, nil
			}
			if err := r.DeleteResource(res); err != nil {
				return false, err
			}
			expired++
			return true, nil
		})
		if err != nil {
			return fmt.Errorf("expire: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "expired %d resource(s)\n", expired)
		return nil
	},
}
