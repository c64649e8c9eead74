package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current lock state",
	RunE: func(cmd *cobra.Command, args []string) error {
		status := machine.Status()

		fmt.Printf("State:     %s\n", describe(status.State))
		fmt.Printf("Enabled:   %v\n", status.Enabled)
		fmt.Printf("Biometric: %v\n", status.BiometricEnabled)
		fmt.Printf("Timeout:   %s\n", cfg.Timeout)
		fmt.Printf("Backend:   %s\n", cfg.Backend)

		if status.FailedAttempts > 0 {
			fmt.Printf("Failures:  %d", status.FailedAttempts)
			if status.LockoutUntil.IsZero() {
				fmt.Printf(" (%d attempts remaining before lockout)", status.RemainingAttempts)
			}
			fmt.Println()
		}
		if !status.LockoutUntil.IsZero() && time.Now().Before(status.LockoutUntil) {
			fmt.Printf("Lockout:   expires in %s\n", time.Until(status.LockoutUntil).Round(time.Second))
		}
		if reason, ok := machine.Suspended(); ok {
			fmt.Printf("Suspended: %s\n", reason)
		}
		return nil
	},
}
