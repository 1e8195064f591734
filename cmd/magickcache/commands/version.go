package commands

import (
	"fmt"

	"github.com/oakmere/magickcache/pkg/magickcache"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		verStr, apiVer := magickcache.Version()
		fmt.Fprintf(cmd.OutOrStdout(), "magickcache %s (commit %s, built %s)\n", Version, Commit, Date)
		fmt.Fprintf(cmd.OutOrStdout(), "engine %s (API version %d)\n", verStr, apiVer)
		return nil
	},
}
