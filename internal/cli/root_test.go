package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Subcommands(t *testing.T) {
	root := NewRootCmd()

	for _, name := range []string{
		"login", "logout", "status", "verify",
		"users", "comments", "books", "tags", "stats", "theme", "version",
	} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestRootCmd_Version(t *testing.T) {
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "bookadmin version dev\n", out.String())
}

func TestRootCmd_InvalidLocalConfig(t *testing.T) {
	t.Setenv("BOOKADMIN_THEME", "sepia")

	root := NewRootCmd()
	root.SetArgs([]string{"version"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}
