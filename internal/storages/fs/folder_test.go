package fs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wal-g/relaysum/internal/storages/storage"
)

func TestFSFolder(t *testing.T) {
	storage.RunFolderTest(NewFolder(t.TempDir(), ""), t)
}

func TestFSMultipart(t *testing.T) {
	folder, err := ConfigureFolder(t.TempDir())
	require.NoError(t, err)
	storage.RunMultipartTest(storage.NewFolderMultipart(folder), t)
}

func TestConfigureMissingFolder(t *testing.T) {
	_, err := ConfigureFolder("/definitely/not/existing/relaysum")
	assert.Error(t, err)
}
