package memory

import (
	"testing"

	"github.com/wal-g/relaysum/internal/storages/storage"
)

func TestMemoryFolder(t *testing.T) {
	storage.RunFolderTest(NewFolder("in_memory/", NewKVS()), t)
}

func TestMemoryMultipart(t *testing.T) {
	storage.RunMultipartTest(storage.NewFolderMultipart(NewFolder("", NewKVS())), t)
}
