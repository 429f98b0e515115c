package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tbckr/stamp/internal/apperr"
	"github.com/tbckr/stamp/internal/config"
	"github.com/tbckr/stamp/internal/output"
)

const aliasGroup = "aliases"

func newAliasCmd(d *deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alias",
		Short: "Manage command aliases stored in .stamp.yaml",
		Long: `Aliases name a stamp command line, e.g.

  stamp alias set rc "bump prerelease --pre rc"
  stamp rc            # runs: stamp bump prerelease --pre rc

Arguments after the alias are appended to its expansion. The expansion is
split on whitespace and must start with a stamp command or flag.`,
		GroupID: "utility",
	}
	cmd.AddCommand(
		newAliasSetCmd(d),
		newAliasListCmd(d),
		newAliasDeleteCmd(d),
	)
	return cmd
}

func newAliasSetCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:   "set <name> <expansion>",
		Short: "Create or update an alias",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, expansion := args[0], args[1]
			if err := validateAliasName(name); err != nil {
				return err
			}
			builtins := builtinCommands(cmd.Root())
			if builtins[name] {
				return fmt.Errorf("%w: alias %q shadows a built-in command", apperr.ErrInvalidInput, name)
			}
			if err := validateExpansion(expansion, builtins); err != nil {
				return err
			}
			if err := config.SetAlias(d.fs, d.cfg.ConfigFile, name, expansion); err != nil {
				return err
			}
			d.logger.Debug("alias saved", "name", name, "expansion", expansion, "file", d.cfg.ConfigFile)
			return nil
		},
	}
}

// aliasList is the rendered form of `alias list`, sorted by name.
type aliasList [][2]string

func newAliasList(aliases map[string]string) aliasList {
	names := make([]string, 0, len(aliases))
	for k := range aliases {
		names = append(names, k)
	}
	sort.Strings(names)
	list := make(aliasList, len(names))
	for i, name := range names {
		list[i] = [2]string{name, aliases[name]}
	}
	return list
}

// MarshalJSON renders the list as a name → expansion object.
func (l aliasList) MarshalJSON() ([]byte, error) {
	m := make(map[string]string, len(l))
	for _, a := range l {
		m[a[0]] = a[1]
	}
	return json.Marshal(m)
}

// WritePlain implements output.PlainFormattable.
func (l aliasList) WritePlain(w io.Writer) error {
	for _, a := range l {
		if _, err := fmt.Fprintf(w, "%s=%s\n", output.Sanitize(a[0]), output.Sanitize(a[1])); err != nil {
			return err
		}
	}
	return nil
}

// WriteTable implements output.TableFormattable.
func (l aliasList) WriteTable(w io.Writer) error {
	table := output.NewWrappingTable(w, 20, 6)
	table.Header([]string{"ALIAS", "EXPANSION"})
	rows := make([][]string, len(l))
	for i, a := range l {
		rows[i] = []string{output.Sanitize(a[0]), output.Sanitize(a[1])}
	}
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

func newAliasListCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all aliases",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			aliases, err := config.LoadAliases(d.fs, d.cfg.ConfigFile)
			if err != nil {
				return err
			}
			if len(aliases) == 0 && d.format != output.FormatJSON {
				return nil
			}
			return writeResult(cmd.OutOrStdout(), d, newAliasList(aliases))
		},
	}
}

func newAliasDeleteCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <name>",
		Aliases: []string{"rm"},
		Short:   "Delete an alias",
		Args:    cobra.ExactArgs(1),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			aliases, err := config.LoadAliases(d.fs, d.cfg.ConfigFile)
			if err != nil {
				return nil, cobra.ShellCompDirectiveError
			}
			names := make([]string, 0, len(aliases))
			for k := range aliases {
				names = append(names, k)
			}
			sort.Strings(names)
			return names, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(_ *cobra.Command, args []string) error {
			return config.DeleteAlias(d.fs, d.cfg.ConfigFile, args[0])
		},
	}
}

// validateAliasName rejects names that start with '-' or contain whitespace.
func validateAliasName(name string) error {
	if name == "" || strings.HasPrefix(name, "-") {
		return fmt.Errorf("%w: alias name %q must not be empty or start with '-'", apperr.ErrInvalidInput, name)
	}
	for _, r := range name {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return fmt.Errorf("%w: alias name %q must not contain whitespace", apperr.ErrInvalidInput, name)
		}
	}
	return nil
}

// validateExpansion requires the expansion to start with a built-in command
// or a flag. Anything else would reach the root command as a version.
func validateExpansion(expansion string, builtins map[string]bool) error {
	fields := strings.Fields(expansion)
	if len(fields) == 0 {
		return fmt.Errorf("%w: alias expansion must not be empty", apperr.ErrInvalidInput)
	}
	if first := fields[0]; !builtins[first] && !strings.HasPrefix(first, "-") {
		return fmt.Errorf("%w: alias expansion must start with a stamp command or flag, got %q", apperr.ErrInvalidInput, first)
	}
	return nil
}

// builtinCommands returns the names and aliases of root's non-alias
// subcommands, plus cobra's help command.
func builtinCommands(root *cobra.Command) map[string]bool {
	names := map[string]bool{"help": true}
	for _, c := range root.Commands() {
		if c.GroupID == aliasGroup {
			continue
		}
		names[c.Name()] = true
		for _, a := range c.Aliases {
			names[a] = true
		}
	}
	return names
}

// addAliasCommands registers one command per alias from the
// project config. Flags are not parsed yet, so --config is picked out of args
// with a throwaway flag set. A config file that cannot be read yields no
// aliases; commands that need the config report the error themselves.
func addAliasCommands(root *cobra.Command, e env, args []string) {
	flags := pflag.NewFlagSet("aliases", pflag.ContinueOnError)
	flags.ParseErrorsWhitelist.UnknownFlags = true
	flags.SetOutput(io.Discard)
	config.RegisterFlags(flags)
	_ = flags.Parse(args)

	cwd, err := e.getwd()
	if err != nil {
		return
	}
	loc, err := config.Locate(e.fs, flags, cwd)
	if err != nil {
		return
	}
	aliases, err := config.LoadAliases(e.fs, loc.File)
	if err != nil || len(aliases) == 0 {
		return
	}

	builtins := builtinCommands(root)
	added := false
	for _, a := range newAliasList(aliases) {
		name, expansion := a[0], a[1]
		if builtins[name] || validateAliasName(name) != nil {
			continue
		}
		root.AddCommand(newAliasRunCmd(e, name, expansion, builtins))
		added = true
	}
	if added {
		root.AddGroup(&cobra.Group{ID: aliasGroup, Title: "Aliases:"})
	}
}

// newAliasRunCmd runs expansion plus the remaining args on a fresh command
// tree with alias lookup disabled, so aliases never expand recursively.
func newAliasRunCmd(e env, name, expansion string, builtins map[string]bool) *cobra.Command {
	return &cobra.Command{
		Use:                name,
		Short:              fmt.Sprintf("Alias for %q", expansion),
		GroupID:            aliasGroup,
		DisableFlagParsing: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateExpansion(expansion, builtins); err != nil {
				return fmt.Errorf("alias %q: %w", name, err)
			}
			expanded := append(strings.Fields(expansion), args...)
			inner := e
			inner.noAliases = true
			return run(cmd.Context(), inner, expanded, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
}
