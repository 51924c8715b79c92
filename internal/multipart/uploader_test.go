package multipart_test

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/cenkalti/backoff"
	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/wal-g/relaysum/internal/checksum"
	"github.com/wal-g/relaysum/internal/multipart"
	"github.com/wal-g/relaysum/internal/storages/memory"
	"github.com/wal-g/relaysum/internal/storages/s3"
	"github.com/wal-g/relaysum/internal/storages/storage"
	"github.com/wal-g/relaysum/testtools"
)

func samplePayload(size int) []byte {
	payload := make([]byte, size)
	for i := range payload {
		payload[i] = byte(i*7 + i/13)
	}
	return payload
}

func noBackOff() backoff.BackOff {
	return &backoff.ZeroBackOff{}
}

func newMemoryMultipart() storage.MultipartFolder {
	return storage.NewFolderMultipart(memory.NewFolder("", memory.NewKVS()))
}

func readObject(t *testing.T, folder storage.MultipartFolder, key string) []byte {
	reader, err := folder.ReadObject(context.Background(), key)
	require.NoError(t, err)
	defer reader.Close()
	content, err := io.ReadAll(reader)
	require.NoError(t, err)
	return content
}

func TestUploadDigestCoversWholeObject(t *testing.T) {
	folder := newMemoryMultipart()
	uploader, err := multipart.NewUploader(folder, multipart.Config{PartSize: 1024, ChunkSize: 100, Concurrency: 3})
	require.NoError(t, err)
	payload := samplePayload(10_000)

	manifest, err := uploader.Upload(context.Background(), "objects/blob", bytes.NewReader(payload))
	require.NoError(t, err)

	expected, err := checksum.Sum(checksum.MD5, payload)
	require.NoError(t, err)
	assert.Equal(t, expected.Hex(), manifest.Digest)
	assert.Equal(t, "md5", manifest.Algorithm)
	assert.Equal(t, int64(len(payload)), manifest.Size)
	require.Len(t, manifest.Parts, 10)
	for i, part := range manifest.Parts {
		assert.Equal(t, i+1, part.Number)
		assert.NotEmpty(t, part.ContentMD5)
	}
	assert.Equal(t, int64(10_000-9*1024), manifest.Parts[9].Size)
	assert.Equal(t, payload, readObject(t, folder, "objects/blob"))

	stored, err := multipart.ReadManifest(context.Background(), folder, multipart.RegularJSON{}, "objects/blob")
	require.NoError(t, err)
	assert.Equal(t, manifest, stored)

	verified, err := uploader.Verify(context.Background(), "objects/blob")
	require.NoError(t, err)
	assert.Equal(t, manifest.Digest, verified.Digest)
}

func TestUploadEmptyPayload(t *testing.T) {
	folder := newMemoryMultipart()
	uploader, err := multipart.NewUploader(folder, multipart.Config{PartSize: 16})
	require.NoError(t, err)

	manifest, err := uploader.Upload(context.Background(), "empty", bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", manifest.Digest)
	require.Len(t, manifest.Parts, 1)
	assert.Equal(t, int64(0), manifest.Parts[0].Size)
	assert.Empty(t, readObject(t, folder, "empty"))
}

func TestUploadWithEveryAlgorithm(t *testing.T) {
	payload := samplePayload(777)
	for _, algorithm := range checksum.Algorithms {
		t.Run(string(algorithm), func(t *testing.T) {
			uploader, err := multipart.NewUploader(newMemoryMultipart(),
				multipart.Config{Algorithm: algorithm, PartSize: 100, ChunkSize: 33})
			require.NoError(t, err)
			manifest, err := uploader.Upload(context.Background(), "blob", bytes.NewReader(payload))
			require.NoError(t, err)

			expected, err := checksum.Sum(algorithm, payload)
			require.NoError(t, err)
			digest, err := manifest.ObjectDigest()
			require.NoError(t, err)
			assert.True(t, expected.Equal(digest))
		})
	}
}

func TestNewUploaderRejectsUnknownAlgorithm(t *testing.T) {
	_, err := multipart.NewUploader(newMemoryMultipart(), multipart.Config{Algorithm: "crc32"})
	assert.IsType(t, checksum.UnknownAlgorithmError{}, err)
}

func TestUploadRetriesFailedParts(t *testing.T) {
	client := testtools.NewMockStoringS3Client()
	client.FailParts = 2
	folder := s3.NewFolder(client, "relay-bucket", "", "")
	uploader, err := multipart.NewUploader(folder, multipart.Config{PartSize: 100, Concurrency: 2, Retries: 3},
		multipart.WithBackOff(noBackOff))
	require.NoError(t, err)
	payload := samplePayload(450)

	manifest, err := uploader.Upload(context.Background(), "blob", bytes.NewReader(payload))
	require.NoError(t, err)
	assert.Len(t, manifest.Parts, 5)
	assert.Equal(t, 7, client.PartCalls)

	content, ok := client.Object("relay-bucket", "blob")
	require.True(t, ok)
	assert.Equal(t, payload, content)
	_, ok = client.Object("relay-bucket", "blob"+multipart.ManifestSuffix)
	assert.True(t, ok)
}

func TestUploadAbortsWhenRetriesAreExhausted(t *testing.T) {
	client := testtools.NewMockStoringS3Client()
	client.FailParts = 100
	folder := s3.NewFolder(client, "relay-bucket", "", "")
	uploader, err := multipart.NewUploader(folder, multipart.Config{PartSize: 100, Retries: 1},
		multipart.WithBackOff(noBackOff))
	require.NoError(t, err)

	_, err = uploader.Upload(context.Background(), "blob", bytes.NewReader(samplePayload(300)))
	assert.Error(t, err)
	assert.Equal(t, 0, client.PendingUploads())
	_, ok := client.Object("relay-bucket", "blob")
	assert.False(t, ok)
}

func TestUploadAbortsOnPermanentFailure(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	folder := testtools.NewMockMultipartFolder(mockCtrl)
	folder.EXPECT().CreateUpload(gomock.Any(), "blob").Return("upload-1", nil)
	folder.EXPECT().
		UploadPart(gomock.Any(), "blob", "upload-1", gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", storage.NewBadDigestError("blob", 1)).
		MinTimes(1).MaxTimes(3)
	folder.EXPECT().AbortUpload(gomock.Any(), "blob", "upload-1").Return(nil)

	uploader, err := multipart.NewUploader(folder, multipart.Config{PartSize: 10, Concurrency: 1, Retries: 5},
		multipart.WithBackOff(noBackOff))
	require.NoError(t, err)

	_, err = uploader.Upload(context.Background(), "blob", bytes.NewReader(samplePayload(30)))
	var badDigest storage.BadDigestError
	assert.True(t, errors.As(err, &badDigest))
}

func TestUploadFailsWhenCreateUploadFails(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	folder := testtools.NewMockMultipartFolder(mockCtrl)
	folder.EXPECT().CreateUpload(gomock.Any(), "blob").Return("", errors.New("denied"))

	uploader, err := multipart.NewUploader(folder, multipart.Config{})
	require.NoError(t, err)
	_, err = uploader.Upload(context.Background(), "blob", bytes.NewReader(samplePayload(30)))
	assert.EqualError(t, err, "denied")
}

// flakyFolder rejects parts numbered failFrom and above.
type flakyFolder struct {
	storage.MultipartFolder
	failFrom int
	calls    []int
}

func (folder *flakyFolder) UploadPart(ctx context.Context, key, uploadID string, number int,
	body []byte, contentMD5 []byte) (string, error) {
	folder.calls = append(folder.calls, number)
	if folder.failFrom > 0 && number >= folder.failFrom {
		return "", storage.NewBadDigestError(key, number)
	}
	return folder.MultipartFolder.UploadPart(ctx, key, uploadID, number, body, contentMD5)
}

func TestUploadResumesFromCheckpoint(t *testing.T) {
	kvs := memory.NewKVS()
	folder := &flakyFolder{MultipartFolder: newMemoryMultipart(), failFrom: 3}
	store := multipart.NewFolderCheckpointStore(memory.NewFolder("checkpoints/", kvs), multipart.RegularJSON{})
	config := multipart.Config{Algorithm: checksum.SHA256, PartSize: 64, ChunkSize: 10, Concurrency: 1}
	payload := samplePayload(64*5 + 7)

	uploader, err := multipart.NewUploader(folder, config, multipart.WithCheckpoints(store),
		multipart.WithBackOff(noBackOff))
	require.NoError(t, err)
	_, err = uploader.Upload(context.Background(), "blob", bytes.NewReader(payload))
	require.Error(t, err)

	checkpoint, err := store.Load(context.Background(), "blob")
	require.NoError(t, err)
	require.NotNil(t, checkpoint)
	assert.Len(t, checkpoint.Parts, 2)
	assert.Equal(t, int64(128), checkpoint.Written)

	folder.failFrom = 0
	folder.calls = nil
	manifest, err := uploader.Upload(context.Background(), "blob", bytes.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4, 5, 6}, folder.calls)
	assert.Equal(t, checkpoint.UploadID, manifest.UploadID)

	expected, err := checksum.Sum(checksum.SHA256, payload)
	require.NoError(t, err)
	assert.Equal(t, expected.Hex(), manifest.Digest)
	assert.Equal(t, int64(len(payload)), manifest.Size)
	assert.Equal(t, payload, readObject(t, folder, "blob"))

	checkpoint, err = store.Load(context.Background(), "blob")
	require.NoError(t, err)
	assert.Nil(t, checkpoint)
}

func TestUploadIgnoresIncompatibleCheckpoint(t *testing.T) {
	folder := newMemoryMultipart()
	store := multipart.NewFolderCheckpointStore(memory.NewFolder("", memory.NewKVS()), multipart.RegularJSON{})
	require.NoError(t, store.Save(context.Background(), &multipart.Checkpoint{
		Key:       "blob",
		UploadID:  "stale",
		Algorithm: "sha1",
		PartSize:  64,
		Parts:     []storage.CompletedPart{{Number: 1, Size: 64}},
	}))

	uploader, err := multipart.NewUploader(folder, multipart.Config{PartSize: 64}, multipart.WithCheckpoints(store))
	require.NoError(t, err)
	payload := samplePayload(200)
	manifest, err := uploader.Upload(context.Background(), "blob", bytes.NewReader(payload))
	require.NoError(t, err)
	assert.NotEqual(t, "stale", manifest.UploadID)
	assert.Len(t, manifest.Parts, 4)
	assert.Equal(t, payload, readObject(t, folder, "blob"))
}

func TestUploadWithLimiter(t *testing.T) {
	folder := newMemoryMultipart()
	uploader, err := multipart.NewUploader(folder, multipart.Config{PartSize: 50},
		multipart.WithLimiter(rate.NewLimiter(rate.Inf, 0)))
	require.NoError(t, err)
	payload := samplePayload(120)

	_, err = uploader.Upload(context.Background(), "blob", bytes.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, payload, readObject(t, folder, "blob"))
}

func TestUploadStopsOnCancelledContext(t *testing.T) {
	folder := newMemoryMultipart()
	uploader, err := multipart.NewUploader(folder, multipart.Config{PartSize: 50})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = uploader.Upload(ctx, "blob", bytes.NewReader(samplePayload(120)))
	assert.Error(t, err)
	exists, err := folder.Exists(context.Background(), "blob")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUploadStartsOverWhenCheckpointedUploadIsGone(t *testing.T) {
	folder := &flakyFolder{MultipartFolder: newMemoryMultipart(), failFrom: 3}
	store := multipart.NewFolderCheckpointStore(memory.NewFolder("checkpoints/", memory.NewKVS()), multipart.RegularJSON{})
	config := multipart.Config{Algorithm: checksum.SHA256, PartSize: 64, Concurrency: 1}
	payload := samplePayload(64*4 + 5)

	uploader, err := multipart.NewUploader(folder, config, multipart.WithCheckpoints(store),
		multipart.WithBackOff(noBackOff))
	require.NoError(t, err)
	_, err = uploader.Upload(context.Background(), "blob", bytes.NewReader(payload))
	require.Error(t, err)
	checkpoint, err := store.Load(context.Background(), "blob")
	require.NoError(t, err)
	require.NotNil(t, checkpoint)

	// the upload expires behind our back
	require.NoError(t, folder.AbortUpload(context.Background(), "blob", checkpoint.UploadID))
	folder.failFrom = 0

	_, err = uploader.Upload(context.Background(), "blob", bytes.NewReader(payload))
	var notFound storage.UploadNotFoundError
	require.True(t, errors.As(err, &notFound))
	dropped, err := store.Load(context.Background(), "blob")
	require.NoError(t, err)
	assert.Nil(t, dropped)

	manifest, err := uploader.Upload(context.Background(), "blob", bytes.NewReader(payload))
	require.NoError(t, err)
	assert.NotEqual(t, checkpoint.UploadID, manifest.UploadID)
	assert.Len(t, manifest.Parts, 5)
	assert.Equal(t, payload, readObject(t, folder, "blob"))

	expected, err := checksum.Sum(checksum.SHA256, payload)
	require.NoError(t, err)
	assert.Equal(t, expected.Hex(), manifest.Digest)
}

func TestUploadDropsInconsistentCheckpoint(t *testing.T) {
	folder := newMemoryMultipart()
	store := multipart.NewFolderCheckpointStore(memory.NewFolder("", memory.NewKVS()), multipart.RegularJSON{})
	require.NoError(t, store.Save(context.Background(), &multipart.Checkpoint{
		Key:       "blob",
		UploadID:  "stale",
		Algorithm: "md5",
		PartSize:  64,
		Parts:     []storage.CompletedPart{{Number: 2, Size: 64}},
	}))

	_, err := store.Load(context.Background(), "blob")
	var invalid multipart.InvalidDtoError
	require.True(t, errors.As(err, &invalid))

	uploader, err := multipart.NewUploader(folder, multipart.Config{PartSize: 64}, multipart.WithCheckpoints(store))
	require.NoError(t, err)
	payload := samplePayload(150)
	manifest, err := uploader.Upload(context.Background(), "blob", bytes.NewReader(payload))
	require.NoError(t, err)
	assert.Len(t, manifest.Parts, 3)
	assert.Equal(t, payload, readObject(t, folder, "blob"))

	checkpoint, err := store.Load(context.Background(), "blob")
	require.NoError(t, err)
	assert.Nil(t, checkpoint)
}
