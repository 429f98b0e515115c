// Package cli provides the Cobra command tree and output wiring for stamp.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tbckr/stamp/internal/apperr"
	"github.com/tbckr/stamp/internal/config"
	"github.com/tbckr/stamp/internal/input"
	"github.com/tbckr/stamp/internal/stamp"
	"github.com/tbckr/stamp/internal/version"
)

// env holds the process-level dependencies the command tree runs against.
// Tests swap fs for an afero.MemMapFs and getwd for a fixed directory.
type env struct {
	fs    afero.Fs
	getwd func() (string, error)
	// noAliases is set while running an alias expansion.
	noAliases bool
}

// newRootCmd builds the top-level Cobra command for stamp.
// Callers must set stdin/stdout/stderr via cmd.SetIn / SetOut / SetErr before Execute.
func newRootCmd(e env) *cobra.Command {
	// d is populated by PersistentPreRunE before any subcommand's RunE runs.
	// INVARIANT: Cobra only executes the innermost PersistentPreRunE in the
	// command chain. Only the completion command may override it.
	var d deps

	cmd := &cobra.Command{
		Use:   "stamp [version]",
		Short: "Stamp a release version into a Home Assistant integration",
		Long: `Stamp writes a release version into an integration's manifest.json and
generates its version.py ("__version__ = \"<version>\"").

The manifest is patched in place: only the value of its "version" key changes.
Both files are replaced atomically. When no version argument is given and stdin
is not a terminal, the version is read from stdin.

Paths are resolved against the project root: the closest directory holding
.stamp.yaml, else the git repository root.`,
		Example: `  stamp 1.2.3
  git describe --tags --abbrev=0 | stamp --strict
  stamp bump minor
  stamp verify --expect 1.2.3`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			resolved, err := buildDeps(cmd, e)
			if err != nil {
				return err
			}
			d = *resolved
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := resolveVersion(cmd, args)
			if err != nil {
				return err
			}
			return runStamp(cmd, &d, v)
		},
	}

	config.RegisterFlags(cmd.PersistentFlags())
	config.RegisterFlagCompletions(cmd)

	cmd.Version = version.Get().Version
	cmd.SetVersionTemplate("stamp version {{.Version}}\n")

	cmd.AddGroup(
		&cobra.Group{ID: "release", Title: "Release Commands:"},
		&cobra.Group{ID: "utility", Title: "Utility Commands:"},
	)

	cmd.AddCommand(
		newBumpCmd(&d),
		newVerifyCmd(&d),
		newShowCmd(&d),
		newConfigCmd(&d, e),
		newAliasCmd(&d),
		newCompletionCmd(),
		newVersionCmd(&d),
	)

	return cmd
}

// Execute builds the root command and runs it with args (without the program name).
func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	return run(ctx, env{fs: afero.NewOsFs(), getwd: os.Getwd}, args, stdin, stdout, stderr)
}

func run(ctx context.Context, e env, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cmd := newRootCmd(e)
	if !e.noAliases {
		addAliasCommands(cmd, e, args)
	}
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.ExecuteContext(ctx)
}

// resolveVersion returns the positional argument, or reads a single line from
// stdin when no argument is given. An interactive terminal on stdin with no
// argument means the user forgot the version.
func resolveVersion(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	r := cmd.InOrStdin()
	if f, ok := r.(*os.File); ok && term.IsTerminal(int(f.Fd())) { //nolint:gosec // uintptr→int is safe for file descriptors; they fit in int on all supported platforms
		return "", fmt.Errorf("%w: no version: pass it as an argument or pipe it on stdin", apperr.ErrInvalidInput)
	}
	return input.ReadVersion(r)
}

// runStamp stamps v into every target and reports the results. Results are
// written even when some targets fail so the user sees what did change.
func runStamp(cmd *cobra.Command, d *deps, v string) error {
	targets, err := d.targets()
	if err != nil {
		return err
	}
	results, stampErr := d.stamper.StampAll(cmd.Context(), targets, v, d.cfg.Concurrency)
	if results == nil {
		return stampErr
	}
	for _, r := range results {
		if r.Changed && !r.DryRun {
			d.logger.Info("stamped", "target", r.Target.DisplayName(), "previous", r.Previous, "version", r.Version)
		}
	}
	if err := writeResult(cmd.OutOrStdout(), d, stamp.Results(results)); err != nil {
		return err
	}
	return stampErr
}
