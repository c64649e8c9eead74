// Package cli provides terminal helpers for the applock commands.
package cli

import (
	"errors"
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/scandocs/applock/pkg/crypto"
)

// ErrMismatch is returned when the two entries of a confirmed prompt
// differ.
var ErrMismatch = errors.New("cli: entries do not match")

// ReadSecret reads a secret from the terminal without echoing.
func ReadSecret(prompt string) (string, error) {
	fmt.Print(prompt)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("cli: failed to read secret: %w", err)
	}
	secret := string(raw)
	crypto.SecureWipe(raw)
	return secret, nil
}

// ReadSecretConfirm reads a secret twice and ensures both entries match.
func ReadSecretConfirm(prompt, confirmPrompt string) (string, error) {
	first, err := ReadSecret(prompt)
	if err != nil {
		return "", err
	}
	second, err := ReadSecret(confirmPrompt)
	if err != nil {
		return "", err
	}
	if first != second {
		return "", ErrMismatch
	}
	return first, nil
}
