package commands

import (
	"fmt"
	"os"

	"github.com/oakmere/magickcache/pkg/codec"
	"github.com/oakmere/magickcache/pkg/magickcache"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <repo-path> <iri> [local-file]",
	Short: "Fetch a resource's payload",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepository(args[0])
		if err != nil {
			return err
		}
		defer repo.Destroy()

		res := magickcache.AcquireResource(repo, args[1])
		defer res.Destroy()

		if res.GetType() == magickcache.Image {
			return getImage(repo, res, args)
		}

		var data []byte
		switch res.GetType() {
		case magickcache.Blob:
			data, err = repo.GetBlob(res)
		case magickcache.Meta:
			var s string
			s, err = repo.GetMeta(res)
			data = []byte(s)
		default:
			return fmt.Errorf("get %q: unrecognized resource kind", args[1])
		}
		if err != nil {
			return fmt.Errorf("get %q: %w", args[1], err)
		}

		if len(args) == 3 {
			return os.WriteFile(args[2], data, 0o664)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

// getImage decodes an image resource and re-encodes it to a local
// file, since the codec's Encode targets a path rather than a byte
// buffer (spec §4.5 GetImage writes through the codec, not the
// engine).
func getImage(repo *magickcache.Repository, res *magickcache.Resource, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("get %q: image resources require an output file", args[1])
	}
	passphrase, err := resolvePassphrase()
	if err != nil {
		return err
	}
	c := codec.New()
	img, err := repo.GetImage(res, sharedFlags.extract, c, passphrase)
	if err != nil {
		return fmt.Errorf("get %q: %w", args[1], err)
	}
	if err := c.Encode(args[2], img, passphrase); err != nil {
		return fmt.Errorf("get %q: encode: %w", args[1], err)
	}
	return nil
}
