package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/scandocs/applock/internal/cli"
	"github.com/scandocs/applock/pkg/lock"
)

var unlockDevice bool

var unlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Attempt to unlock the app",
	RunE: func(cmd *cobra.Command, args []string) error {
		status := machine.Status()
		if !status.Enabled {
			fmt.Println("App lock is not enabled")
			return nil
		}

		if unlockDevice {
			done, err := deviceUnlock()
			if err != nil {
				return err
			}
			if done {
				return nil
			}
			// Fallback: continue to the secret prompt.
		}

		value, err := cli.ReadSecret("Enter secret: ")
		if err != nil {
			return err
		}

		if machine.AttemptUnlock(value) {
			fmt.Println("Unlocked")
			return nil
		}

		status = machine.Status()
		switch st := status.State.(type) {
		case lock.LockedOut:
			if st.Permanent {
				return fmt.Errorf("permanently locked out; the secret has been wiped, run setup again")
			}
			return fmt.Errorf("locked out for %s", time.Until(st.Until).Round(time.Second))
		default:
			return fmt.Errorf("wrong secret (%d attempts remaining before lockout)", status.RemainingAttempts)
		}
	},
}

// deviceUnlock runs the device-credential path. Returns done=true when
// the attempt concluded (either way) without needing the secret prompt.
func deviceUnlock() (bool, error) {
	gate := machine.Biometric()
	if !gate.CanOffer() {
		fmt.Println("Device credential unlock is not currently offered")
		return false, nil
	}

	fallback := false
	err := gate.Unlock(func() { fallback = true })
	if err != nil {
		return false, err
	}
	if fallback {
		return false, nil
	}

	if _, ok := machine.State().(lock.Unlocked); ok {
		fmt.Println("Unlocked with device credential")
		return true, nil
	}
	fmt.Println("Device credential unlock failed")
	return true, nil
}

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Force the app back into the locked state",
	RunE: func(cmd *cobra.Command, args []string) error {
		machine.Lock()
		fmt.Println("Locked")
		return nil
	},
}

func init() {
	unlockCmd.Flags().BoolVar(&unlockDevice, "device", false, "try the enrolled device credential first")
}
