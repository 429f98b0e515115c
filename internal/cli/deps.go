package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/tbckr/stamp/internal/apperr"
	"github.com/tbckr/stamp/internal/config"
	"github.com/tbckr/stamp/internal/log"
	"github.com/tbckr/stamp/internal/output"
	"github.com/tbckr/stamp/internal/stamp"
)

// deps holds fully-resolved runtime dependencies for a subcommand.
type deps struct {
	fs      afero.Fs
	logger  *slog.Logger
	cfg     *config.Config
	format  output.Format
	stamper *stamp.Stamper
}

// buildDeps resolves config, logger, output format and the Stamper. Every
// invalid setting is reported at once rather than one per run.
func buildDeps(cmd *cobra.Command, e env) (*deps, error) {
	cwd, err := e.getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}
	cfg, err := config.Load(e.fs, cmd.Flags(), cwd)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	var merr *multierror.Error
	if cfg.Concurrency < 1 {
		merr = multierror.Append(merr, fmt.Errorf("--concurrency must be at least 1, got %d", cfg.Concurrency))
	}
	format, err := output.ParseFormat(cfg.Output)
	if err != nil {
		merr = multierror.Append(merr, err)
	}
	logger, err := log.New(cmd.ErrOrStderr(), cfg.Verbose, cfg.LogFormat)
	if err != nil {
		merr = multierror.Append(merr, err)
	}
	if err := merr.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrInvalidInput, err)
	}

	logger.Debug("configuration resolved",
		"root", cfg.Root,
		"config_file", cfg.ConfigFile,
		"strict", cfg.Strict,
		"dry_run", cfg.DryRun,
		"concurrency", cfg.Concurrency,
	)

	s := stamp.New(e.fs, logger, stamp.Options{Strict: cfg.Strict, DryRun: cfg.DryRun})
	return &deps{fs: e.fs, logger: logger, cfg: cfg, format: format, stamper: s}, nil
}

// targets returns the validated targets for commands that touch integration files.
func (d *deps) targets() ([]stamp.Target, error) {
	targets := d.cfg.ResolveTargets()
	if err := stamp.ValidateTargets(targets); err != nil {
		return nil, err
	}
	return targets, nil
}

// writeResult formats and writes a result to stdout in the configured format.
func writeResult(stdout io.Writer, d *deps, result any) error {
	if err := output.Write(stdout, d.format, result); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}
