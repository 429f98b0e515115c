package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/tbckr/stamp/internal/config"
	"github.com/tbckr/stamp/internal/output"
	"github.com/tbckr/stamp/internal/projdir"
)

func newConfigCmd(d *deps, e env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Short:   "Read and write the project's .stamp.yaml",
		GroupID: "utility",
	}
	cmd.AddCommand(
		newConfigPathCmd(d, e),
		newConfigShowCmd(d),
		newConfigGetCmd(d),
		newConfigSetCmd(d),
		newConfigEditCmd(d, e),
	)
	return cmd
}

// locateOnly replaces buildDeps for commands that must work while the config
// file is broken: it resolves the file's location but never parses it.
func locateOnly(d *deps, e env) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cwd, err := e.getwd()
		if err != nil {
			return fmt.Errorf("getting working directory: %w", err)
		}
		loc, err := config.Locate(e.fs, cmd.Flags(), cwd)
		if err != nil {
			return err
		}
		*d = deps{fs: e.fs, cfg: &config.Config{ConfigFile: loc.File, Root: loc.Root}}
		return nil
	}
}

func newConfigPathCmd(d *deps, e env) *cobra.Command {
	return &cobra.Command{
		Use:               "path",
		Short:             "Print the config file path",
		Args:              cobra.NoArgs,
		PersistentPreRunE: locateOnly(d, e),
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), d.cfg.ConfigFile)
			return err
		},
	}
}

// configView is the effective configuration as shown by `config show`.
// Values come from the fully-resolved config (defaults, env vars, flags and
// file), not only from what is written to the file.
type configView struct {
	rows [][2]string
}

func newConfigView(cfg *config.Config) (configView, error) {
	var view configView
	for _, k := range config.ValidKeys() {
		v, err := cfg.Value(k)
		if err != nil {
			return view, err
		}
		view.rows = append(view.rows, [2]string{k, v})
	}
	return view, nil
}

// MarshalJSON renders the view as a flat object.
func (v configView) MarshalJSON() ([]byte, error) {
	m := make(map[string]string, len(v.rows))
	for _, r := range v.rows {
		m[r[0]] = r[1]
	}
	return json.Marshal(m)
}

// WritePlain implements output.PlainFormattable.
func (v configView) WritePlain(w io.Writer) error {
	for _, r := range v.rows {
		if _, err := fmt.Fprintf(w, "%s=%s\n", r[0], r[1]); err != nil {
			return err
		}
	}
	return nil
}

// WriteTable implements output.TableFormattable.
func (v configView) WriteTable(w io.Writer) error {
	table := output.NewWrappingTable(w, 20, 6)
	table.Header([]string{"KEY", "VALUE"})
	rows := make([][]string, len(v.rows))
	for i, r := range v.rows {
		rows[i] = []string{r[0], r[1]}
	}
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

func newConfigShowCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:     "show",
		Aliases: []string{"cat"},
		Short:   "Display all effective config settings",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			view, err := newConfigView(d.cfg)
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), d, view)
		},
	}
}

func newConfigGetCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print the effective value of a config key",
		Args:  cobra.ExactArgs(1),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return config.ValidKeys(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ValidateKey(args[0]); err != nil {
				return err
			}
			v, err := d.cfg.Value(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), v)
			return err
		},
	}
}

func newConfigSetCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a config value and persist it to .stamp.yaml",
		Args:  cobra.ExactArgs(2),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			switch len(args) {
			case 0:
				return config.ValidKeys(), cobra.ShellCompDirectiveNoFileComp
			case 1:
				return config.KeyCompletions(args[0]), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(_ *cobra.Command, args []string) error {
			key := config.NormalizeKey(args[0])
			if err := config.ValidateKey(key); err != nil {
				return err
			}
			typedValue, err := config.ParseValue(key, args[1])
			if err != nil {
				return err
			}
			return config.SetValue(d.fs, d.cfg.ConfigFile, key, typedValue)
		},
	}
}

func newConfigEditCmd(d *deps, e env) *cobra.Command {
	return &cobra.Command{
		Use:               "edit",
		Short:             "Open the config file in $EDITOR",
		Args:              cobra.NoArgs,
		PersistentPreRunE: locateOnly(d, e),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := projdir.EnsureFile(d.fs, d.cfg.ConfigFile); err != nil {
				return err
			}
			editor := os.Getenv("EDITOR")
			if editor == "" {
				editor = os.Getenv("VISUAL")
			}
			if editor == "" {
				editor = "vi"
			}
			c := exec.CommandContext(cmd.Context(), editor, d.cfg.ConfigFile) //nolint:gosec // editor is sourced from user's $EDITOR/$VISUAL env var
			c.Stdin = cmd.InOrStdin()
			c.Stdout = cmd.OutOrStdout()
			c.Stderr = cmd.ErrOrStderr()
			return c.Run()
		},
	}
}
