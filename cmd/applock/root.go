// Package main provides the applock CLI: a harness around the local
// re-authentication lock engine for inspecting, driving and testing the
// lock state of the companion app.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/scandocs/applock/internal/config"
	"github.com/scandocs/applock/internal/keyring"
	"github.com/scandocs/applock/pkg/audit"
	"github.com/scandocs/applock/pkg/lock"
	"github.com/scandocs/applock/pkg/store"
)

var (
	dataDir string

	cfg     *config.Config
	kv      store.Store
	machine *lock.Machine
)

var rootCmd = &cobra.Command{
	Use:   "applock",
	Short: "applock guards the app behind a local re-authentication lock",
	Long: `applock decides, independent of any server session, whether the
application is currently accessible to the device holder. It enforces a
lockout policy against brute-force guessing and survives process death
mid-lockout.`,
	SilenceUsage: true,
	// PersistentPreRunE wires the engine before every subcommand. The
	// engine's construction loads the persisted failure record
	// synchronously, so a lockout left by a previous process is already
	// in force before any command runs.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if dataDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("failed to get user home directory: %w", err)
			}
			dataDir = filepath.Join(home, ".applock")
		}

		var err error
		cfg, err = config.LoadOrDefault(dataDir)
		if err != nil {
			return err
		}

		switch cfg.Backend {
		case config.BackendBolt:
			kv, err = store.OpenBolt(dataDir)
		default:
			kv, err = store.OpenSQLite(dataDir)
		}
		if err != nil {
			return err
		}

		timeout, err := cfg.ParseTimeout()
		if err != nil {
			return err
		}

		logger, err := audit.NewLogger(filepath.Join(dataDir, "audit"))
		if err != nil {
			return err
		}

		machine, err = lock.New(lock.Config{
			Store:         kv,
			Timeout:       timeout,
			Authenticator: keyring.NewDeviceCredential(),
			Audit:         logger,
		})
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if kv != nil {
			return kv.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (default ~/.applock)")

	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(changeCmd)
	rootCmd.AddCommand(disableCmd)
	rootCmd.AddCommand(unlockCmd)
	rootCmd.AddCommand(lockCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(auditCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// describe renders a lock state for terminal output.
func describe(st lock.State) string {
	switch s := st.(type) {
	case lock.Unlocked:
		return "unlocked"
	case lock.Locked:
		return fmt.Sprintf("locked (since %s)", s.Since.Format("15:04:05"))
	case lock.LockedOut:
		if s.Permanent {
			return "locked out permanently (secret wiped, re-setup required)"
		}
		return fmt.Sprintf("locked out until %s", s.Until.Format("15:04:05"))
	default:
		return "unknown"
	}
}
