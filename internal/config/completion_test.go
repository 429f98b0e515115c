package config_test

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"

	"github.com/tbckr/stamp/internal/config"
)

func TestCompleteOutputFormat(t *testing.T) {
	vals, directive := config.CompleteOutputFormat(nil, nil, "")
	assert.Equal(t, cobra.ShellCompDirectiveNoFileComp, directive)
	assert.ElementsMatch(t, []string{"table", "json", "plain"}, vals)
}

func TestCompleteLogFormat(t *testing.T) {
	vals, directive := config.CompleteLogFormat(nil, nil, "p")
	assert.Equal(t, cobra.ShellCompDirectiveNoFileComp, directive)
	assert.ElementsMatch(t, []string{"text", "json", "pretty"}, vals)
}

func TestCompleteFileFlags(t *testing.T) {
	vals, directive := config.CompleteJSONFile(nil, nil, "")
	assert.Equal(t, cobra.ShellCompDirectiveFilterFileExt, directive)
	assert.Equal(t, []string{"json"}, vals)

	vals, directive = config.CompletePythonFile(nil, nil, "")
	assert.Equal(t, cobra.ShellCompDirectiveFilterFileExt, directive)
	assert.Equal(t, []string{"py"}, vals)
}
