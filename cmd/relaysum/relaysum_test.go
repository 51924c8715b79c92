package relaysum

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandsAreRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, sub := range Cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, name := range []string{"digest", "upload", "verify", "flags"} {
		assert.True(t, names[name], name)
	}
}

func TestConfigFlagsAreHiddenFromRootHelp(t *testing.T) {
	flag := Cmd.PersistentFlags().Lookup("relaysum-algorithm")
	require.NotNil(t, flag)
	assert.True(t, flag.Hidden)
	assert.False(t, Cmd.PersistentFlags().Lookup("config").Hidden)
}

func TestDigestCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "payload")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0644))

	var out bytes.Buffer
	Cmd.SetOut(&out)
	Cmd.SetArgs([]string{"digest", "--algorithm", "sha256", path})
	defer Cmd.SetArgs(nil)
	require.NoError(t, Cmd.Execute())
	assert.Equal(t,
		"sha256:ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad  3  "+path+"\n",
		out.String())
}
