package config

import (
	"github.com/spf13/cobra"

	"github.com/tbckr/stamp/internal/log"
	"github.com/tbckr/stamp/internal/output"
)

// CompleteOutputFormat provides shell completion candidates for the --output flag.
func CompleteOutputFormat(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return output.Formats(), cobra.ShellCompDirectiveNoFileComp
}

// CompleteLogFormat provides shell completion candidates for the --log-format flag.
func CompleteLogFormat(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return log.Formats(), cobra.ShellCompDirectiveNoFileComp
}

// CompleteJSONFile restricts completion to JSON files, for --manifest.
func CompleteJSONFile(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{"json"}, cobra.ShellCompDirectiveFilterFileExt
}

// CompletePythonFile restricts completion to Python files, for --version-file.
func CompletePythonFile(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{"py"}, cobra.ShellCompDirectiveFilterFileExt
}

// RegisterFlagCompletions wires completion functions for the flags added by
// RegisterFlags on cmd's persistent flag set.
func RegisterFlagCompletions(cmd *cobra.Command) {
	_ = cmd.RegisterFlagCompletionFunc("output", CompleteOutputFormat)
	_ = cmd.RegisterFlagCompletionFunc("log-format", CompleteLogFormat)
	_ = cmd.RegisterFlagCompletionFunc("manifest", CompleteJSONFile)
	_ = cmd.RegisterFlagCompletionFunc("version-file", CompletePythonFile)
}
