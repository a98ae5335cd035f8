package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwerks/gwerks/internal/provisioning"
)

func TestRoot_Subcommands(t *testing.T) {
	t.Parallel()

	root := Root()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{
		"env", "bind", "launch", "describe", "start", "stop", "terminate", "protect", "run", "secret", "version",
	}, names)
}

func TestRoot_OptionShorthands(t *testing.T) {
	t.Parallel()

	root := Root()
	tests := []struct {
		command string
		flag    string
		short   string
	}{
		{"bind", "name", "n"},
		{"bind", "spec", "s"},
		{"terminate", "key_pair", "k"},
		{"terminate", "force", "f"},
		{"run", "expect", "e"},
		{"run", "timeout", "t"},
		{"secret", "key", "k"},
	}
	for _, tt := range tests {
		cmd, _, err := root.Find([]string{tt.command})
		require.NoError(t, err)
		f := cmd.Flags().Lookup(tt.flag)
		require.NotNil(t, f, "%s --%s", tt.command, tt.flag)
		assert.Equal(t, tt.short, f.Shorthand, "%s --%s", tt.command, tt.flag)
	}
}

func TestRoot_RequiredOption(t *testing.T) {
	t.Parallel()

	root := Root()
	root.SetArgs([]string{"describe", "--env-file", ""})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	err := root.Execute()

	require.ErrorIs(t, err, provisioning.ErrConfiguration)
	assert.Contains(t, err.Error(), "'name' must be specified")
}

func TestVersion(t *testing.T) {
	t.Parallel()

	root := Root()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version", "--env-file", ""})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "gwerks dev")
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("GWERKS_TEST_FROM_FILE=loaded\n"), 0o600))
	t.Setenv("GWERKS_TEST_FROM_FILE", "")
	require.NoError(t, os.Unsetenv("GWERKS_TEST_FROM_FILE"))

	require.NoError(t, loadEnvFile(path, true))
	assert.Equal(t, "loaded", os.Getenv("GWERKS_TEST_FROM_FILE"))

	require.NoError(t, loadEnvFile(filepath.Join(dir, "missing.env"), false))
	require.Error(t, loadEnvFile(filepath.Join(dir, "missing.env"), true))
}

func TestCatalogPath(t *testing.T) {
	t.Setenv("GWERKS_CATALOG", "")
	assert.Equal(t, DefaultCatalogPath, catalogPath())

	t.Setenv("GWERKS_CATALOG", "/etc/gwerks/catalog.yaml")
	assert.Equal(t, "/etc/gwerks/catalog.yaml", catalogPath())
}
