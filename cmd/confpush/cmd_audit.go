package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/confpush-network/confpush/pkg/audit"
	"github.com/confpush-network/confpush/pkg/cli"
)

var (
	auditDevice   string
	auditFailures bool
	auditLimit    int
	auditSince    time.Duration
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Query the install audit trail",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := audit.NewFileLogger(userSettings.GetAuditLog(), audit.RotationConfig{})
		if err != nil {
			return err
		}
		defer logger.Close()

		filter := audit.Filter{
			Device:      auditDevice,
			FailureOnly: auditFailures,
			Limit:       auditLimit,
		}
		if auditSince > 0 {
			filter.StartTime = time.Now().Add(-auditSince)
		}

		events, err := logger.Query(filter)
		if err != nil {
			return err
		}
		for _, e := range events {
			printAuditEvent(e)
		}
		return nil
	},
}

func init() {
	flags := auditCmd.Flags()
	flags.StringVar(&auditDevice, "device", "", "Filter by device")
	flags.BoolVar(&auditFailures, "failures", false, "Show only failed runs")
	flags.IntVar(&auditLimit, "limit", 20, "Maximum events to show (most recent)")
	flags.DurationVar(&auditSince, "since", 0, "Only events newer than this (e.g. 24h)")
}

func printAuditEvent(e *audit.Event) {
	status := cli.Green("ok")
	if !e.Success {
		status = cli.Red("failed")
	}
	mode := "commit"
	if e.DryRun {
		mode = "dry-run"
	}
	line := fmt.Sprintf("%s  %-6s  %s (%s)  %s  changed=%t  by %s",
		e.Timestamp.Format("2006-01-02 15:04:05"), status, e.Device, e.DevOS, mode, e.Changed, e.User)
	if e.Error != "" {
		line += "  " + cli.Dim(e.Error)
	}
	fmt.Println(line)
}
