package install

import (
	"context"
	"os"

	"github.com/confpush-network/confpush/pkg/driver"
	"github.com/confpush-network/confpush/pkg/util"
)

// Installer runs the configuration installation workflow against one device.
// The workflow is strictly sequential, retries nothing, and closes the device
// session exactly once on every exit path.
type Installer struct {
	params   *Resolved
	redactor *Redactor

	// newDriver is driver.New unless a test substitutes it.
	newDriver func(devOS string, opts driver.ConnectOptions) (driver.Driver, error)
}

// NewInstaller builds an installer for a resolved parameter set.
func NewInstaller(params *Resolved) *Installer {
	return &Installer{
		params:    params,
		redactor:  NewRedactor(params.Secrets...),
		newDriver: driver.New,
	}
}

// Redactor exposes the redactor so callers can scrub their own output.
func (ins *Installer) Redactor() *Redactor {
	return ins.redactor
}

// Run executes the workflow:
//
//  1. archive the running config if requested
//  2. load the candidate (merge or replace, inline or file)
//  3. diff running vs candidate unless diffing is disabled
//  4. archive the candidate if requested
//  5. discard on dry-run / no-commit, otherwise commit when changed
//  6. close the session
//
// A failure in any step aborts the remaining steps; the returned error names
// the step and unwraps to the matching sentinel in pkg/util.
func (ins *Installer) Run(ctx context.Context) (*Result, error) {
	p := ins.params
	log := util.WithDevice(p.Hostname)

	dev, err := ins.newDriver(p.DevOS, driver.ConnectOptions{
		Hostname:     p.Hostname,
		Username:     p.Username,
		Password:     p.Password,
		Timeout:      p.Timeout,
		OptionalArgs: p.OptionalArgs,
	})
	if err != nil {
		return nil, err
	}

	if err := dev.Open(ctx); err != nil {
		return nil, util.NewStepError(util.ErrConnect, "cannot connect to device", err)
	}
	log.Debug("device session open")

	result, runErr := ins.steps(ctx, dev)

	closeErr := dev.Close()
	if runErr != nil {
		if closeErr != nil {
			// The substantive error wins; the close failure is only logged.
			log.Warnf("closing device connection after failure: %v", closeErr)
		}
		return nil, runErr
	}
	if closeErr != nil {
		return nil, util.NewStepError(util.ErrClose, "cannot close device connection", closeErr)
	}
	log.Debug("device session closed")

	return result, nil
}

// steps runs everything between Open and Close.
func (ins *Installer) steps(ctx context.Context, dev driver.Driver) (*Result, error) {
	p := ins.params
	log := util.WithDevice(p.Hostname)

	if p.ArchiveFile != "" {
		running, err := dev.GetConfig(ctx, driver.SourceRunning)
		if err != nil {
			return nil, util.NewStepError(util.ErrConnect, "cannot retrieve running config", err)
		}
		if err := saveToFile(running, p.ArchiveFile); err != nil {
			return nil, util.NewStepError(util.ErrConnect, "cannot retrieve running config", err)
		}
		log.Debugf("archived running config to %s", p.ArchiveFile)
	}

	src := driver.ConfigSource{Contents: p.Config, Filename: p.ConfigFile}
	var loadErr error
	if p.ReplaceConfig {
		loadErr = dev.LoadReplaceCandidate(ctx, src)
	} else {
		loadErr = dev.LoadMergeCandidate(ctx, src)
	}
	if loadErr != nil {
		return nil, util.NewStepError(util.ErrLoad, "cannot load config", loadErr)
	}

	result := &Result{}
	if p.GetDiffs {
		diffText, err := dev.CompareConfig(ctx)
		if err != nil {
			return nil, util.NewStepError(util.ErrDiff, "cannot diff config", err)
		}
		result.Changed = diffText != ""
		result.Diff = &Diff{Prepared: diffText}
		result.Message = diffText
		if p.DiffFile != "" {
			if err := saveToFile(diffText, p.DiffFile); err != nil {
				return nil, util.NewStepError(util.ErrDiff, "cannot diff config", err)
			}
		}
	} else {
		// Without a diff there is no way to tell, so the run is treated as
		// unconditionally changed and no diff artifact is produced.
		result.Changed = true
	}

	if p.CandidateFile != "" {
		candidate, err := dev.GetConfig(ctx, driver.SourceCandidate)
		if err != nil {
			return nil, util.NewStepError(util.ErrConnect, "cannot retrieve candidate config", err)
		}
		if err := saveToFile(candidate, p.CandidateFile); err != nil {
			return nil, util.NewStepError(util.ErrConnect, "cannot retrieve candidate config", err)
		}
		log.Debugf("archived candidate config to %s", p.CandidateFile)
	}

	if p.DryRun || !p.CommitChanges {
		if err := dev.DiscardConfig(ctx); err != nil {
			return nil, util.NewStepError(util.ErrCommit, "cannot install config", err)
		}
		log.Info("candidate discarded (dry run)")
	} else if result.Changed {
		if err := dev.CommitConfig(ctx, p.CommitComment); err != nil {
			return nil, util.NewStepError(util.ErrCommit, "cannot install config", err)
		}
		result.Committed = true
		log.Info("candidate committed")
	}
	// unchanged with commit requested: implicit no-op, no commit call

	return result, nil
}

func saveToFile(content, filename string) error {
	return os.WriteFile(filename, []byte(content), 0o644)
}
