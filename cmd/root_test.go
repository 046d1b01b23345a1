package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	expected := []string{
		"ingest", "list", "questions", "fill", "undo",
		"status", "preview", "assemble", "actions", "serve",
	}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "docfill", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestIngestCommand_Flags(t *testing.T) {
	flag := ingestCmd.Flags().Lookup("title")
	require.NotNil(t, flag, "ingest command should have --title flag")
	assert.Equal(t, "", flag.DefValue)
}

func TestFillCommand_Flags(t *testing.T) {
	flag := fillCmd.Flags().Lookup("consent")
	require.NotNil(t, flag, "fill command should have --consent flag")
	assert.Equal(t, "false", flag.DefValue)
}

func TestActionsCommand_Flags(t *testing.T) {
	flag := actionsCmd.Flags().Lookup("limit")
	require.NotNil(t, flag, "actions command should have --limit flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestAssembleCommand_Flags(t *testing.T) {
	flag := assembleCmd.Flags().Lookup("output")
	require.NotNil(t, flag, "assemble command should have --output flag")
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestParseRefID(t *testing.T) {
	id, err := parseRefID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"", "abc", "0", "-3", "1.5"} {
		_, err := parseRefID(bad)
		assert.Error(t, err, "parseRefID(%q) should fail", bad)
	}
}
