package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/scandocs/applock/pkg/audit"
)

var auditLimit int

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Security event log operations",
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent security events",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := audit.NewLogger(filepath.Join(dataDir, "audit"))
		if err != nil {
			return err
		}
		events, err := logger.List(auditLimit)
		if err != nil {
			return err
		}
		for _, event := range events {
			line := fmt.Sprintf("%s  %-24s %s", event.Timestamp, event.Operation, event.Result)
			if event.Detail != "" {
				line += "  " + event.Detail
			}
			fmt.Println(line)
		}
		return nil
	},
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the integrity of the security event log",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := audit.NewLogger(filepath.Join(dataDir, "audit"))
		if err != nil {
			return err
		}
		result, err := logger.Verify()
		if err != nil {
			return err
		}
		if result.Valid() {
			fmt.Printf("OK: %d events, chain intact\n", result.Events)
			return nil
		}
		for _, problem := range result.Problems {
			fmt.Println(problem)
		}
		return fmt.Errorf("audit log failed verification")
	},
}

func init() {
	auditListCmd.Flags().IntVar(&auditLimit, "limit", 20, "number of events to show (0 = all)")
	auditCmd.AddCommand(auditListCmd)
	auditCmd.AddCommand(auditVerifyCmd)
}
