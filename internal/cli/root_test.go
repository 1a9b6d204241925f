package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "gatectl", cmd.Use)
	assert.True(t, cmd.SilenceErrors)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	paths := [][]string{
		{"login"},
		{"logout"},
		{"status"},
		{"check"},
		{"bars", "list"},
		{"bars", "create"},
		{"bars", "stats"},
		{"bars", "invite"},
		{"mock-server"},
	}

	for _, path := range paths {
		sub, _, err := cmd.Find(path)
		require.NoError(t, err, "command %v should exist", path)
		assert.Equal(t, path[len(path)-1], sub.Name())
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "c", configFlag.Shorthand)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
}

func TestLoginCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	login, _, err := cmd.Find([]string{"login"})
	require.NoError(t, err)

	emailFlag := login.Flags().Lookup("email")
	require.NotNil(t, emailFlag)
	assert.Equal(t, "e", emailFlag.Shorthand)
	assert.NotNil(t, login.Flags().Lookup("password"))
}

func TestMockServerFlags(t *testing.T) {
	cmd := NewRootCommand()
	ms, _, err := cmd.Find([]string{"mock-server"})
	require.NoError(t, err)

	addr := ms.Flags().Lookup("addr")
	require.NotNil(t, addr)
	assert.Equal(t, "127.0.0.1:3026", addr.DefValue)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, ExitCode(nil))
	assert.Equal(t, ExitAuth, ExitCode(wrapExit(ExitAuth, "x", nil)))
	assert.Equal(t, ExitFailure, ExitCode(assert.AnError))
}
