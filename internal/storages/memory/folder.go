package memory

import (
	"bytes"
	"context"
	"io"
	"path"
	"strings"

	"github.com/pkg/errors"

	"github.com/wal-g/relaysum/internal/storages/storage"
)

var _ storage.Folder = &Folder{}

type Folder struct {
	path    string
	Storage *KVS
}

func NewFolder(path string, storage *KVS) *Folder {
	return &Folder{path, storage}
}

func NewError(err error, format string, args ...interface{}) storage.Error {
	return storage.NewError(err, "Memory", format, args...)
}

func (folder *Folder) Exists(objectRelativePath string) (bool, error) {
	_, exists := folder.Storage.Load(path.Join(folder.path, objectRelativePath))
	return exists, nil
}

func (folder *Folder) GetPath() string {
	return folder.path
}

func (folder *Folder) ListFolder() (objects []storage.Object, subFolders []storage.Folder, err error) {
	subFolderNames := map[string]bool{}
	folder.Storage.Range(func(key string, value TimeStampedData) bool {
		if !strings.HasPrefix(key, folder.path) {
			return true
		}
		relative := strings.TrimPrefix(key, folder.path)
		if idx := strings.Index(relative, "/"); idx >= 0 {
			subFolderNames[relative[:idx]] = true
		} else {
			objects = append(objects, storage.NewLocalObject(relative, value.Timestamp, int64(value.Size)))
		}
		return true
	})
	for name := range subFolderNames {
		subFolders = append(subFolders, NewFolder(path.Join(folder.path, name)+"/", folder.Storage))
	}
	return
}

func (folder *Folder) DeleteObjects(objectRelativePaths []string) error {
	for _, objectName := range objectRelativePaths {
		folder.Storage.Delete(path.Join(folder.path, objectName))
	}
	return nil
}

func (folder *Folder) GetSubFolder(subFolderRelativePath string) storage.Folder {
	return NewFolder(storage.AddDelimiterToPath(path.Join(folder.path, subFolderRelativePath)), folder.Storage)
}

func (folder *Folder) ReadObject(objectRelativePath string) (io.ReadCloser, error) {
	objectAbsPath := path.Join(folder.path, objectRelativePath)
	object, exists := folder.Storage.Load(objectAbsPath)
	if !exists {
		return nil, storage.NewObjectNotFoundError(objectAbsPath)
	}
	return io.NopCloser(bytes.NewReader(object.Data.Bytes())), nil
}

func (folder *Folder) PutObject(name string, content io.Reader) error {
	data, err := io.ReadAll(content)
	objectPath := path.Join(folder.path, name)
	if err != nil {
		return errors.Wrapf(err, "failed to put '%s' in memory storage", objectPath)
	}
	folder.Storage.Store(objectPath, *bytes.NewBuffer(data))
	return nil
}

func (folder *Folder) PutObjectWithContext(ctx context.Context, name string, content io.Reader) error {
	if err := ctx.Err(); err != nil {
		return NewError(err, "upload of '%s' cancelled", name)
	}
	return folder.PutObject(name, content)
}
