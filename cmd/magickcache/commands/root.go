// Package commands implements the magickcache CLI's subcommands.
package commands

import (
	"fmt"
	"os"

	"github.com/oakmere/magickcache/config"
	"github.com/oakmere/magickcache/internal/logger"
	"github.com/oakmere/magickcache/pkg/fsutil"
	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// sharedFlags holds the flags common to every subcommand (spec §6.3).
var sharedFlags struct {
	configFile     string
	passkeyFile    string
	passphraseFile string
	ttl            string
	extract        string
	metrics        bool
}

// cfg is the configuration loaded once in PersistentPreRun (SPEC_FULL
// §2.3): flag defaults for -passkey/-ttl/-metrics fall back to it when
// the corresponding flag is left unset on the command line.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "magickcache",
	Short: "Filesystem-backed content cache for binary resources",
	Long: `magickcache manages a filesystem-backed cache of binary resources
(blobs, meta strings, and images) addressed by hierarchical IRIs.

Use "magickcache [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&sharedFlags.configFile, "config", "", "path to a config file (default: search the usual locations, see config.Load)")
	rootCmd.PersistentFlags().StringVar(&sharedFlags.passkeyFile, "passkey", "", "file containing the repository passkey (default: config's passkey_file)")
	rootCmd.PersistentFlags().StringVar(&sharedFlags.passphraseFile, "passphrase", "", "file containing a per-image encryption passphrase, forwarded opaquely to the image codec")
	rootCmd.PersistentFlags().StringVar(&sharedFlags.ttl, "ttl", "", "resource time-to-live (e.g. 10m, 2h); 0 never expires (default: config's default_ttl)")
	rootCmd.PersistentFlags().StringVar(&sharedFlags.extract, "extract", "", "image extract geometry, e.g. 100x100+0+0")
	rootCmd.PersistentFlags().BoolVar(&sharedFlags.metrics, "metrics", false, "enable Prometheus metrics collection (default: config's metrics.enabled)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(sharedFlags.configFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded

		if !cmd.Flags().Changed("passkey") && cfg.PasskeyFile != "" {
			sharedFlags.passkeyFile = cfg.PasskeyFile
		}
		if !cmd.Flags().Changed("ttl") {
			sharedFlags.ttl = cfg.DefaultTTL.String()
		}
		if !cmd.Flags().Changed("metrics") && cfg.Metrics.Enabled {
			sharedFlags.metrics = true
		}

		verbose, _ := cmd.Flags().GetBool("verbose")
		switch {
		case verbose:
			logger.SetLevel(logger.LevelDebug)
		case cfg.Logging.Level != "":
			logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
		}

		if sharedFlags.metrics {
			enableMetrics()
		}
		fsutil.SetHugePagesEnabled(cfg.MmapHugePages)
		return nil
	}

	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(expireCmd)
	rootCmd.AddCommand(identifyCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(putCmd)
	rootCmd.AddCommand(completionCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// Exit prints an error to stderr and exits with status 1.
func Exit(format string, args ...any) {
	rootCmd.PrintErrf(format+"\n", args...)
	os.Exit(1)
}
