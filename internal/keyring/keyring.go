// Package keyring implements the biometric collaborator for desktop
// installs: a device credential held by the OS keyring. Where a phone
// offers a fingerprint prompt, a workstation offers its login keychain;
// possession of the unlocked keychain entry plays the role of the
// enrolled biometric factor.
package keyring

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/zalando/go-keyring"
)

const (
	serviceName = "applock"
	entryName   = "device-credential"

	tokenLength = 32
)

// DeviceCredential satisfies the lock engine's Authenticator interface
// using an opaque random token enrolled in the OS keyring.
type DeviceCredential struct {
	service string
	entry   string
}

// NewDeviceCredential returns the default device credential.
func NewDeviceCredential() *DeviceCredential {
	return &DeviceCredential{service: serviceName, entry: entryName}
}

// Enroll stores a fresh random token, replacing any previous one.
func (d *DeviceCredential) Enroll() error {
	token := make([]byte, tokenLength)
	if _, err := rand.Read(token); err != nil {
		return err
	}
	return keyring.Set(d.service, d.entry, hex.EncodeToString(token))
}

// Remove deletes the enrolled token. Removing a missing token is not an
// error.
func (d *DeviceCredential) Remove() error {
	err := keyring.Delete(d.service, d.entry)
	if err == keyring.ErrNotFound {
		return nil
	}
	return err
}

// CanAuthenticate reports whether a token is enrolled and readable.
func (d *DeviceCredential) CanAuthenticate() bool {
	_, err := keyring.Get(d.service, d.entry)
	return err == nil
}

// Authenticate resolves the device credential. The OS keyring performs
// its own user verification where the platform supports it; a missing
// token falls back to the secret path.
func (d *DeviceCredential) Authenticate(onSuccess func(), onError func(message string), onFallback func()) {
	token, err := keyring.Get(d.service, d.entry)
	switch {
	case err == keyring.ErrNotFound:
		onFallback()
	case err != nil:
		onError(err.Error())
	case token == "":
		onError("empty device credential")
	default:
		onSuccess()
	}
}
