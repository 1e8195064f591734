package commands

import (
	"fmt"

	"github.com/oakmere/magickcache/internal/cli/prompt"
	"github.com/oakmere/magickcache/pkg/magickcache"
	"github.com/spf13/cobra"
)

var createCmd = &cobra.Command{
	Use:   "create <repo-path>",
	Short: "Create a new repository",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var passkey []byte
		if sharedFlags.passkeyFile == "" {
			p, err := prompt.PasskeyWithConfirmation("Repository passkey", "Confirm repository passkey")
			if err != nil {
				return err
			}
			passkey = []byte(p)
		} else {
			var err error
			if passkey, err = resolvePasskey(); err != nil {
				return err
			}
		}
		if err := magickcache.Create(args[0], passkey); err != nil {
			return fmt.Errorf("create repository %q: %w", args[0], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created repository at %s\n", args[0])
		return nil
	},
}
