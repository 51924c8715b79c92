package storage

import (
	"context"
	"crypto/md5"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func RunFolderTest(storageFolder Folder, t *testing.T) {
	sub1 := storageFolder.GetSubFolder("Sub1")

	err := storageFolder.PutObject("file0", strings.NewReader("data0"))
	assert.NoError(t, err)

	err = sub1.PutObject("file1", strings.NewReader("data1"))
	assert.NoError(t, err)

	b, err := storageFolder.Exists("file0")
	assert.NoError(t, err)
	assert.True(t, b)
	b, err = sub1.Exists("file1")
	assert.NoError(t, err)
	assert.True(t, b)

	objects, subFolders, err := storageFolder.ListFolder()
	assert.NoError(t, err)
	require.Len(t, objects, 1)
	require.Len(t, subFolders, 1)
	assert.Equal(t, "file0", objects[0].GetName())
	assert.Equal(t, int64(5), objects[0].GetSize())
	assert.True(t, strings.HasSuffix(subFolders[0].GetPath(), "Sub1/"))

	sublist, subFolders, err := sub1.ListFolder()
	assert.NoError(t, err)
	assert.Equal(t, 0, len(subFolders))
	require.Len(t, sublist, 1)
	assert.Equal(t, "file1", sublist[0].GetName())

	data, err := sub1.ReadObject("file1")
	assert.NoError(t, err)
	data0Str, err := io.ReadAll(data)
	assert.NoError(t, err)
	assert.Equal(t, "data1", string(data0Str))
	err = data.Close()
	assert.NoError(t, err)

	err = sub1.DeleteObjects([]string{"file1"})
	assert.NoError(t, err)
	err = storageFolder.DeleteObjects([]string{"file0"})
	assert.NoError(t, err)

	b, err = storageFolder.Exists("file0")
	assert.NoError(t, err)
	assert.False(t, b)
	b, err = sub1.Exists("file1")
	assert.NoError(t, err)
	assert.False(t, b)

	_, err = sub1.ReadObject("Tumba Yumba")
	assert.True(t, IsObjectNotFound(err))
}

func RunMultipartTest(multipart MultipartFolder, t *testing.T) {
	ctx := context.Background()
	key := "objects/blob"

	uploadID, err := multipart.CreateUpload(ctx, key)
	require.NoError(t, err)

	bodies := [][]byte{[]byte("hello "), []byte("relay "), []byte("world")}
	parts := make([]CompletedPart, 0, len(bodies))
	for i, body := range bodies {
		sum := md5.Sum(body)
		etag, err := multipart.UploadPart(ctx, key, uploadID, i+1, body, sum[:])
		require.NoError(t, err)
		parts = append(parts, CompletedPart{Number: i + 1, ETag: etag, Size: int64(len(body))})
	}

	wrong := md5.Sum([]byte("something else"))
	_, err = multipart.UploadPart(ctx, key, uploadID, 4, []byte("tail"), wrong[:])
	assert.IsType(t, BadDigestError{}, err)

	exists, err := multipart.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, multipart.CompleteUpload(ctx, key, uploadID, parts))

	reader, err := multipart.ReadObject(ctx, key)
	require.NoError(t, err)
	content, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "hello relay world", string(content))
	require.NoError(t, reader.Close())

	abortedID, err := multipart.CreateUpload(ctx, "objects/aborted")
	require.NoError(t, err)
	_, err = multipart.UploadPart(ctx, "objects/aborted", abortedID, 1, []byte("x"), nil)
	require.NoError(t, err)
	require.NoError(t, multipart.AbortUpload(ctx, "objects/aborted", abortedID))

	_, err = multipart.UploadPart(ctx, "objects/aborted", abortedID, 2, []byte("y"), nil)
	assert.IsType(t, UploadNotFoundError{}, err)
}
