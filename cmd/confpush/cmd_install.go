package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/user"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/confpush-network/confpush/pkg/audit"
	"github.com/confpush-network/confpush/pkg/cli"
	"github.com/confpush-network/confpush/pkg/install"
	"github.com/confpush-network/confpush/pkg/util"
)

var (
	installHostname string
	installHost     string // alias for --hostname
	installUsername string
	installPassword string
	askPassword     bool
	providerFile    string
	installDevOS    string
	installTimeout  int
	optionalArgs    []string

	installConfig     string
	installConfigFile string

	commitMode bool
	checkMode  bool

	replaceConfig bool
	getDiffs      bool

	diffFile      string
	archiveFile   string
	candidateFile string
	commitComment string

	jsonOutput bool
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install a candidate configuration on a device",
	Long: `Install loads a candidate configuration onto a device, diffs it against
the running configuration, and commits or discards it.

Dry-run by default: the candidate is loaded and diffed, then discarded.
Use -x to commit when the diff is non-empty.

The candidate comes from --config (inline) or --config-file (exactly one).
--replace makes the candidate wholly supersede the running configuration;
the default merges it in. A provider YAML file supplies connection defaults
that explicit flags override.

Examples:
  confpush install --hostname leaf1-ny -u admin --dev-os sonic \
      --config-file compiled/leaf1-ny/config_db.json --diff-file diff.txt

  confpush install --provider ios_provider.yml \
      --config "set system host-name lab" --dev-os junos -x`,
	RunE: runInstall,
}

func init() {
	flags := installCmd.Flags()

	flags.StringVar(&installHostname, "hostname", "", "IP or FQDN of the device")
	flags.StringVar(&installHost, "host", "", "Alias for --hostname")
	flags.StringVarP(&installUsername, "username", "u", "", "Username")
	flags.StringVarP(&installPassword, "password", "p", "", "Password (prefer --ask-password)")
	flags.BoolVar(&askPassword, "ask-password", false, "Prompt for the password on stdin")
	flags.StringVar(&providerFile, "provider", "", "YAML file with connection defaults")
	flags.StringVarP(&installDevOS, "dev-os", "o", "", "Device OS (see 'confpush drivers')")
	flags.IntVar(&installTimeout, "timeout", 0, "Connection timeout in seconds (default 60)")
	flags.StringArrayVar(&optionalArgs, "optional-arg", nil, "Driver-specific option, key=value (repeatable)")

	flags.StringVar(&installConfig, "config", "", "Candidate configuration, inline")
	flags.StringVar(&installConfigFile, "config-file", "", "Path to the candidate configuration file")

	flags.BoolVarP(&commitMode, "commit", "x", false, "Commit changes (default is dry-run)")
	flags.BoolVar(&checkMode, "check", false, "Check mode: always discard, even with -x")

	flags.BoolVar(&replaceConfig, "replace", false, "Replace the running config instead of merging")
	flags.BoolVar(&getDiffs, "get-diffs", true, "Compute a diff between running and candidate")

	flags.StringVar(&diffFile, "diff-file", "", "Path to store the diff text")
	flags.StringVar(&archiveFile, "archive-file", "", "Path to store the pre-change running config")
	flags.StringVar(&candidateFile, "candidate-file", "", "Path to store the loaded candidate config")
	flags.StringVar(&commitComment, "comment", "", "Optional commit comment")

	flags.BoolVar(&jsonOutput, "json", false, "JSON output")
}

func runInstall(cmd *cobra.Command, args []string) error {
	params := &install.Params{
		Hostname:      firstOf(installHostname, installHost),
		Username:      installUsername,
		Password:      installPassword,
		DevOS:         firstOf(installDevOS, userSettings.DefaultDevOS),
		Timeout:       installTimeout,
		Config:        installConfig,
		ConfigFile:    installConfigFile,
		CommitChanges: commitMode,
		DryRun:        checkMode,
		DiffFile:      diffFile,
		ArchiveFile:   archiveFile,
		CandidateFile: candidateFile,
		CommitComment: commitComment,
	}
	if params.Timeout == 0 {
		params.Timeout = userSettings.DefaultTimeout
	}

	// --replace and --get-diffs are tri-state: only an explicitly set flag
	// takes precedence over the provider bundle.
	if cmd.Flags().Changed("replace") {
		params.ReplaceConfig = &replaceConfig
	}
	if cmd.Flags().Changed("get-diffs") {
		params.GetDiffs = &getDiffs
	}

	if providerFile != "" {
		path, err := util.ExpandPath(providerFile)
		if err != nil {
			return err
		}
		provider, err := install.LoadProvider(path)
		if err != nil {
			return err
		}
		params.Provider = provider
	}

	if askPassword && params.Password == "" {
		fmt.Fprint(os.Stderr, "Password: ")
		pw, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return fmt.Errorf("reading password: %w", err)
		}
		params.Password = string(pw)
	}

	var err error
	if params.OptionalArgs, err = parseOptionalArgs(optionalArgs); err != nil {
		return err
	}

	resolved, err := params.Resolve()
	if err != nil {
		return err
	}

	installer := install.NewInstaller(resolved)
	util.AddHook(installer.Redactor().Hook())

	start := time.Now()
	result, runErr := installer.Run(context.Background())
	recordAudit(resolved, result, runErr, time.Since(start), installer.Redactor())

	if runErr != nil {
		return fmt.Errorf("%s", installer.Redactor().ScrubErr(runErr))
	}

	return printResult(resolved, result, installer.Redactor())
}

// recordAudit appends the run to the audit trail; audit failures are warned
// about, never fatal.
func recordAudit(p *install.Resolved, result *install.Result, runErr error, d time.Duration, redactor *install.Redactor) {
	logger, err := audit.NewFileLogger(userSettings.GetAuditLog(), audit.RotationConfig{
		MaxSize:    10 * 1024 * 1024,
		MaxBackups: 10,
	})
	if err != nil {
		util.Warnf("Could not open audit log: %v", err)
		return
	}
	defer logger.Close()

	event := audit.NewEvent(currentUser(), p.Hostname, p.DevOS, "config.install").
		WithDuration(d)
	if runErr != nil {
		event.WithError(redactor.ScrubErr(runErr))
	} else {
		event.WithSuccess().
			WithOutcome(result.Changed, result.Committed, p.DryRun || !p.CommitChanges)
	}
	if err := logger.Log(event); err != nil {
		util.Warnf("Could not write audit log: %v", err)
	}
}

func printResult(p *install.Resolved, result *install.Result, redactor *install.Redactor) error {
	if result.Diff != nil {
		result.Diff.Prepared = redactor.Scrub(result.Diff.Prepared)
	}
	result.Message = redactor.Scrub(result.Message)

	if jsonOutput {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	if result.Diff != nil && result.Diff.Prepared != "" {
		fmt.Println(cli.Bold("Changes between running and candidate:"))
		fmt.Println(result.Diff.Prepared)
	}

	switch {
	case result.Committed:
		fmt.Println(cli.Green("Changes committed."))
	case !result.Changed && p.GetDiffs:
		fmt.Println(cli.Green("No changes required."))
	default:
		fmt.Println(cli.Yellow("DRY-RUN: candidate discarded, no changes applied. Use -x to commit."))
	}
	return nil
}

func parseOptionalArgs(args []string) (map[string]string, error) {
	if len(args) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(args))
	for _, kv := range args {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 || parts[0] == "" {
			return nil, fmt.Errorf("invalid --optional-arg %q: expected key=value", kv)
		}
		out[parts[0]] = parts[1]
	}
	return out, nil
}

func currentUser() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return "unknown"
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
