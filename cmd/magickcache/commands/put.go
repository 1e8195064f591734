package commands

import (
	"fmt"
	"os"

	"github.com/oakmere/magickcache/pkg/codec"
	"github.com/oakmere/magickcache/pkg/magickcache"
	"github.com/spf13/cobra"
)

var putCmd = &cobra.Command{
	Use:   "put <repo-path> <iri> <local-file>",
	Short: "Store a local file as a resource",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepository(args[0])
		if err != nil {
			return err
		}
		defer repo.Destroy()

		ttl, err := parseTTLSeconds()
		if err != nil {
			return err
		}

		res := magickcache.AcquireResource(repo, args[1])
		defer res.Destroy()
		res.SetTTL(ttl)

		switch res.GetType() {
		case magickcache.Image:
			passphrase, err := resolvePassphrase()
			if err != nil {
				return err
			}
			c := codec.New()
			img, err := c.Decode(args[2], "", passphrase)
			if err != nil {
				return fmt.Errorf("put %q: decode: %w", args[1], err)
			}
			err = repo.PutImage(res, img, c, passphrase)
			if err != nil {
				return fmt.Errorf("put %q: %w", args[1], err)
			}
		case magickcache.Blob:
			data, err := os.ReadFile(args[2])
			if err != nil {
				return fmt.Errorf("put %q: %w", args[1], err)
			}
			if err := repo.PutBlob(res, data); err != nil {
				return fmt.Errorf("put %q: %w", args[1], err)
			}
		case magickcache.Meta:
			data, err := os.ReadFile(args[2])
			if err != nil {
				return fmt.Errorf("put %q: %w", args[1], err)
			}
			if err := repo.PutMeta(res, string(data)); err != nil {
				return fmt.Errorf("put %q: %w", args[1], err)
			}
		default:
			return fmt.Errorf("put %q: unrecognized resource kind", args[1])
		}

		fmt.Fprintf(cmd.OutOrStdout(), "stored %s\n", args[1])
		return nil
	},
}
