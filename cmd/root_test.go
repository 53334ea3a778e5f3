package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	// Collect subcommand names.
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	// Verify expected subcommands are registered.
	expected := []string{"sync", "batch", "inspect", "prune", "status", "runs", "serve"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "steam-archive", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestSyncCommand_Flags(t *testing.T) {
	flag := syncCmd.Flags().Lookup("limit")
	require.NotNil(t, flag, "sync command should have --limit flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestBatchCommand_Flags(t *testing.T) {
	flag := batchCmd.Flags().Lookup("concurrency")
	require.NotNil(t, flag, "batch command should have --concurrency flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestInspectCommand_Flags(t *testing.T) {
	flag := inspectCmd.Flags().Lookup("json")
	require.NotNil(t, flag, "inspect command should have --json flag")
	assert.Equal(t, "false", flag.DefValue)
}

func TestPruneCommand_Flags(t *testing.T) {
	flag := pruneCmd.Flags().Lookup("dry-run")
	require.NotNil(t, flag, "prune command should have --dry-run flag")
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestRunsCommand_HasSubcommands(t *testing.T) {
	cmds := runsCmd.Commands()
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	expected := []string{"list", "show", "stats"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}
