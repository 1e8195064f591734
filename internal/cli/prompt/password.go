// Package prompt wraps promptui for interactive passkey entry, used
// when the CLI's -passkey flag is omitted (spec §6.3); -passphrase is
// never prompted for.
// Adapted from the donor's password prompt wrapper.
package prompt

import (
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
)

// ErrPasskeyMismatch indicates a passkey confirmation did not match.
var ErrPasskeyMismatch = errors.New("passkeys do not match")

func wrapError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) {
		return fmt.Errorf("prompt: interrupted")
	}
	return err
}

// Passkey prompts for a masked passkey.
func Passkey(label string) (string, error) {
	p := promptui.Prompt{Label: label, Mask: '*'}
	result, err := p.Run()
	return result, wrapError(err)
}

// PasskeyWithConfirmation prompts for a passkey and a confirmation,
// used by the create subcommand (spec §6.3) to avoid binding a
// repository to a passkey the caller mistyped.
func PasskeyWithConfirmation(label, confirmLabel string) (string, error) {
	passkey, err := Passkey(label)
	if err != nil {
		return "", err
	}
	confirm, err := Passkey(confirmLabel)
	if err != nil {
		return "", err
	}
	if passkey != confirm {
		return "", ErrPasskeyMismatch
	}
	return passkey, nil
}
