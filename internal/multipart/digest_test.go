package multipart_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wal-g/relaysum/internal/checksum"
	"github.com/wal-g/relaysum/internal/multipart"
	"github.com/wal-g/relaysum/internal/storages/storage"
)

func TestDigestOfSegmentsEqualsDigestOfConcatenation(t *testing.T) {
	digest, err := multipart.Digest(context.Background(), checksum.MD5,
		strings.NewReader("abc"), strings.NewReader(""), strings.NewReader("def"))
	require.NoError(t, err)
	assert.Equal(t, "e80b5017098950fc58aad83c8c14978e", digest.Hex())
	assert.Equal(t, int64(6), digest.Size)
}

func TestDigestWithoutSegments(t *testing.T) {
	digest, err := multipart.Digest(context.Background(), checksum.MD5)
	require.NoError(t, err)
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", digest.Hex())
}

func TestDigestRejectsUnknownAlgorithm(t *testing.T) {
	_, err := multipart.Digest(context.Background(), "crc32", strings.NewReader("abc"))
	assert.Error(t, err)
}

func TestVerifyDetectsTamperedObject(t *testing.T) {
	folder := newMemoryMultipart()
	uploader, err := multipart.NewUploader(folder, multipart.Config{PartSize: 32})
	require.NoError(t, err)
	payload := samplePayload(100)
	_, err = uploader.Upload(context.Background(), "blob", bytes.NewReader(payload))
	require.NoError(t, err)

	tampered := append([]byte{}, payload...)
	tampered[70] ^= 0xff
	require.NoError(t, folder.PutObject(context.Background(), "blob", bytes.NewReader(tampered)))
	_, err = uploader.Verify(context.Background(), "blob")
	var mismatch multipart.DigestMismatchError
	assert.True(t, errors.As(err, &mismatch))

	require.NoError(t, folder.PutObject(context.Background(), "blob", bytes.NewReader(append(payload, 'x'))))
	_, err = uploader.Verify(context.Background(), "blob")
	assert.True(t, errors.As(err, &mismatch))

	require.NoError(t, folder.PutObject(context.Background(), "blob", bytes.NewReader(payload[:90])))
	_, err = uploader.Verify(context.Background(), "blob")
	assert.True(t, errors.As(err, &mismatch))
}

func TestVerifyWithoutManifest(t *testing.T) {
	uploader, err := multipart.NewUploader(newMemoryMultipart(), multipart.Config{})
	require.NoError(t, err)
	_, err = uploader.Verify(context.Background(), "missing")
	assert.True(t, storage.IsObjectNotFound(err))
}

func TestVerifyRejectsInconsistentManifest(t *testing.T) {
	folder := newMemoryMultipart()
	uploader, err := multipart.NewUploader(folder, multipart.Config{PartSize: 32})
	require.NoError(t, err)
	manifest, err := uploader.Upload(context.Background(), "blob", bytes.NewReader(samplePayload(100)))
	require.NoError(t, err)

	manifest.Size += 10
	require.NoError(t, multipart.WriteManifest(context.Background(), folder, multipart.RegularJSON{}, manifest))
	_, err = uploader.Verify(context.Background(), "blob")
	var invalid multipart.InvalidDtoError
	assert.True(t, errors.As(err, &invalid))

	manifest.Size -= 10
	manifest.Parts[0], manifest.Parts[1] = manifest.Parts[1], manifest.Parts[0]
	require.NoError(t, multipart.WriteManifest(context.Background(), folder, multipart.RegularJSON{}, manifest))
	_, err = uploader.Verify(context.Background(), "blob")
	assert.True(t, errors.As(err, &invalid))
}
