package commands

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/oakmere/magickcache/internal/cli/prompt"
	"github.com/oakmere/magickcache/pkg/magickcache"
)

// resolvePasskey reads the repository's own secret from -passkey,
// falling back to an interactive masked prompt when the flag (and
// config's passkey_file default) are unset (spec §6.3). This is the
// repository-identity secret used in the content-addressing digest —
// distinct from -passphrase, which is a separate per-image encryption
// secret forwarded opaquely to the codec (see resolvePassphrase).
func resolvePasskey() ([]byte, error) {
	if sharedFlags.passkeyFile != "" {
		data, err := os.ReadFile(sharedFlags.passkeyFile)
		if err != nil {
			return nil, fmt.Errorf("read passkey file: %w", err)
		}
		return []byte(strings.TrimRight(string(data), "\r\n")), nil
	}

	passkey, err := prompt.Passkey("Repository passkey")
	if err != nil {
		return nil, err
	}
	return []byte(passkey), nil
}

// resolvePassphrase reads the per-image encryption passphrase from
// -passphrase, returning "" when the flag is unset — unlike
// resolvePasskey this never prompts, since most resource kinds never
// touch it (spec §6.3 treats it as optional, image-only).
func resolvePassphrase() (string, error) {
	if sharedFlags.passphraseFile == "" {
		return "", nil
	}
	data, err := os.ReadFile(sharedFlags.passphraseFile)
	if err != nil {
		return "", fmt.Errorf("read passphrase file: %w", err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

// parseTTLSeconds converts the -ttl flag into seconds, per spec §3's
// "0 means never expires".
func parseTTLSeconds() (uint64, error) {
	if sharedFlags.ttl == "" || sharedFlags.ttl == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(sharedFlags.ttl)
	if err != nil {
		return 0, fmt.Errorf("invalid -ttl %q: %w", sharedFlags.ttl, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid -ttl %q: must not be negative", sharedFlags.ttl)
	}
	return uint64(d.Seconds()), nil
}

// openRepository acquires the repository at path with the resolved
// passkey, translating engine errors into CLI-friendly messages.
func openRepository(path string) (*magickcache.Repository, error) {
	passkey, err := resolvePasskey()
	if err != nil {
		return nil, err
	}
	repo, err := magickcache.Acquire(path, passkey)
	if err != nil {
		return nil, fmt.Errorf("open repository %q: %w", path, err)
	}
	return repo, nil
}
