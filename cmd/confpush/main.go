// Confpush - Multi-Vendor Network Configuration Installer
//
// A CLI tool that installs a candidate configuration on a network device:
//   - Dry-run by default (load, diff, then discard; require -x to commit)
//   - Merge or replace semantics for the candidate
//   - Provider bundles (YAML) supply connection defaults
//   - Archive of running and candidate configs before a commit
//   - Audit logging of every run
//
// Vendor support is selected by --dev-os, resolved through the driver
// registry. Driver packages register themselves on import:
//
//	confpush install --hostname leaf1-ny -u admin --dev-os sonic \
//	    --config-file compiled/leaf1-ny/running.conf --diff-file diff.txt -x
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/confpush-network/confpush/pkg/settings"
	"github.com/confpush-network/confpush/pkg/util"
	"github.com/confpush-network/confpush/pkg/version"

	// Registered device drivers.
	_ "github.com/confpush-network/confpush/pkg/driver/netconf"
	_ "github.com/confpush-network/confpush/pkg/driver/sonic"
)

var (
	verbose bool

	userSettings *settings.Settings
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "confpush",
	Short:         "Multi-Vendor Network Configuration Installer",
	SilenceUsage:  true,
	SilenceErrors: true,
	Long: `Confpush installs a candidate configuration on a network device.

The candidate is loaded (merge or replace), diffed against the running
configuration, and then committed or discarded. Runs are dry-run by
default; use -x to commit.

  confpush install --hostname <device> -u <user> --dev-os <os> --config-file <file> [-x]`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		userSettings, err = settings.Load()
		if err != nil {
			util.Warnf("Could not load settings: %v", err)
			userSettings = &settings.Settings{}
		}

		// Quiet by default, verbose on -v
		if verbose {
			util.SetLogLevel("debug")
		} else {
			util.SetLogLevel("warn")
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(driversCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		if version.Version == "dev" {
			fmt.Println("confpush dev build (use 'make build' for version info)")
		} else {
			fmt.Printf("confpush %s\n", version.Info())
		}
	},
}
