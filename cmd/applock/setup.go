package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scandocs/applock/internal/cli"
	"github.com/scandocs/applock/internal/config"
	"github.com/scandocs/applock/internal/keyring"
	"github.com/scandocs/applock/pkg/secret"
)

var setupDevice bool

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Enable the app lock with a new secret",
	Long: `Enable the app lock. The secret is stored only as a salted Argon2id
hash; failure counters are reset. With --device, a device credential is
enrolled in the OS keyring as the biometric factor.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := cli.ReadSecretConfirm("Enter new secret: ", "Confirm secret: ")
		if err != nil {
			return err
		}

		result := secret.ValidateStrength(value)
		if !result.Valid {
			for _, warning := range result.Warnings {
				fmt.Println(warning)
			}
			return fmt.Errorf("secret rejected")
		}
		for _, warning := range result.Warnings {
			fmt.Printf("note: %s\n", warning)
		}

		if err := machine.Setup(value); err != nil {
			return err
		}

		if setupDevice {
			credential := keyring.NewDeviceCredential()
			if err := credential.Enroll(); err != nil {
				return fmt.Errorf("failed to enroll device credential: %w", err)
			}
			machine.SetBiometricEnabled(true)
			fmt.Println("Device credential enrolled")
		}

		// Persist the config so later invocations use the same backend.
		if err := config.Save(dataDir, *cfg); err != nil {
			return err
		}

		fmt.Printf("App lock enabled (strength: %s)\n", result.Strength)
		return nil
	},
}

var changeCmd = &cobra.Command{
	Use:   "change",
	Short: "Change the lock secret",
	RunE: func(cmd *cobra.Command, args []string) error {
		old, err := cli.ReadSecret("Enter current secret: ")
		if err != nil {
			return err
		}
		next, err := cli.ReadSecretConfirm("Enter new secret: ", "Confirm secret: ")
		if err != nil {
			return err
		}

		result := secret.ValidateStrength(next)
		if !result.Valid {
			for _, warning := range result.Warnings {
				fmt.Println(warning)
			}
			return fmt.Errorf("secret rejected")
		}

		if !machine.ChangeSecret(old, next) {
			return fmt.Errorf("secret change refused: %s", describe(machine.State()))
		}
		fmt.Println("Secret changed")
		return nil
	},
}

var disableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Disable the app lock and wipe the stored secret",
	RunE: func(cmd *cobra.Command, args []string) error {
		machine.DisableLock()
		if err := keyring.NewDeviceCredential().Remove(); err != nil {
			fmt.Printf("warning: failed to remove device credential: %v\n", err)
		}
		fmt.Println("App lock disabled")
		return nil
	},
}

func init() {
	setupCmd.Flags().BoolVar(&setupDevice, "device", false, "also enroll a device credential for biometric-style unlock")
}
