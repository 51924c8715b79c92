package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/wal-g/tracelog"

	"github.com/wal-g/relaysum/internal/checksum"
)

//go:generate mockgen -destination=../../../testtools/mock_multipart_folder.go -package testtools github.com/wal-g/relaysum/internal/storages/storage MultipartFolder

const multipartDirectory = ".multipart"

type CompletedPart struct {
	Number int    `json:"number"`
	ETag   string `json:"etag"`
	Size   int64  `json:"size"`
	// ContentMD5 is the base64 MD5 of the part body.
	ContentMD5 string `json:"content_md5"`
}

// MultipartFolder stores objects assembled from separately uploaded parts.
type MultipartFolder interface {
	CreateUpload(ctx context.Context, key string) (uploadID string, err error)
	// UploadPart stores part number (1-based) of the upload. contentMD5, when not empty,
	// must match the MD5 of body. It returns the part's ETag.
	UploadPart(ctx context.Context, key, uploadID string, number int, body []byte, contentMD5 []byte) (etag string, err error)
	// CompleteUpload assembles the object from parts in ascending part number order.
	CompleteUpload(ctx context.Context, key, uploadID string, parts []CompletedPart) error
	AbortUpload(ctx context.Context, key, uploadID string) error

	PutObject(ctx context.Context, name string, content io.Reader) error
	ReadObject(ctx context.Context, name string) (io.ReadCloser, error)
	Exists(ctx context.Context, name string) (bool, error)
}

type BadDigestError struct {
	error
}

func NewBadDigestError(key string, number int) BadDigestError {
	return BadDigestError{errors.Errorf("Content-MD5 of part %d of '%s' does not match its body", number, key)}
}

func (err BadDigestError) Error() string {
	return fmt.Sprintf(tracelog.GetErrorFormatter(), err.error)
}

// folderMultipart emulates multipart uploads on a plain Folder: parts are kept
// as objects under .multipart/<key>/<uploadID>/ and concatenated on completion.
type folderMultipart struct {
	folder Folder
}

var _ MultipartFolder = &folderMultipart{}

func NewFolderMultipart(folder Folder) MultipartFolder {
	return &folderMultipart{folder: folder}
}

func (multipart *folderMultipart) uploadDir(key, uploadID string) string {
	return JoinPath(multipartDirectory, key, uploadID)
}

func (multipart *folderMultipart) markerPath(key, uploadID string) string {
	return JoinPath(multipart.uploadDir(key, uploadID), "upload")
}

func (multipart *folderMultipart) partPath(key, uploadID string, number int) string {
	return JoinPath(multipart.uploadDir(key, uploadID), fmt.Sprintf("part.%05d", number))
}

func (multipart *folderMultipart) CreateUpload(ctx context.Context, key string) (string, error) {
	uploadID := uuid.New().String()
	err := multipart.folder.PutObjectWithContext(ctx, multipart.markerPath(key, uploadID), bytes.NewReader(nil))
	if err != nil {
		return "", errors.Wrapf(err, "failed to create multipart upload of '%s'", key)
	}
	tracelog.DebugLogger.Printf("Created multipart upload %s of %s\n", uploadID, key)
	return uploadID, nil
}

func (multipart *folderMultipart) checkUpload(key, uploadID string) error {
	exists, err := multipart.folder.Exists(multipart.markerPath(key, uploadID))
	if err != nil {
		return err
	}
	if !exists {
		return NewUploadNotFoundError(key, uploadID)
	}
	return nil
}

func (multipart *folderMultipart) UploadPart(ctx context.Context, key, uploadID string, number int,
	body []byte, contentMD5 []byte) (string, error) {
	if number < 1 {
		return "", errors.Errorf("part number must be positive, got %d", number)
	}
	if err := multipart.checkUpload(key, uploadID); err != nil {
		return "", err
	}
	digest, err := checksum.Sum(checksum.MD5, body)
	if err != nil {
		return "", err
	}
	if len(contentMD5) > 0 && !bytes.Equal(contentMD5, digest.Sum) {
		return "", NewBadDigestError(key, number)
	}
	err = multipart.folder.PutObjectWithContext(ctx, multipart.partPath(key, uploadID, number), bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrapf(err, "failed to upload part %d of '%s'", number, key)
	}
	return digest.Hex(), nil
}

func (multipart *folderMultipart) CompleteUpload(ctx context.Context, key, uploadID string, parts []CompletedPart) error {
	if err := multipart.checkUpload(key, uploadID); err != nil {
		return err
	}
	if !sort.SliceIsSorted(parts, func(i, j int) bool { return parts[i].Number < parts[j].Number }) {
		return errors.Errorf("parts of '%s' must be listed in ascending order", key)
	}

	readers := make([]io.Reader, 0, len(parts))
	closers := make([]io.Closer, 0, len(parts))
	defer func() {
		for _, closer := range closers {
			_ = closer.Close()
		}
	}()
	for _, part := range parts {
		partReader, err := multipart.folder.ReadObject(multipart.partPath(key, uploadID, part.Number))
		if err != nil {
			return errors.Wrapf(err, "failed to read part %d of '%s'", part.Number, key)
		}
		readers = append(readers, partReader)
		closers = append(closers, partReader)
	}

	if err := multipart.folder.PutObjectWithContext(ctx, key, io.MultiReader(readers...)); err != nil {
		return errors.Wrapf(err, "failed to assemble '%s'", key)
	}
	return multipart.AbortUpload(ctx, key, uploadID)
}

func (multipart *folderMultipart) AbortUpload(_ context.Context, key, uploadID string) error {
	uploadFolder := multipart.folder.GetSubFolder(multipart.uploadDir(key, uploadID))
	objects, _, err := uploadFolder.ListFolder()
	if err != nil {
		return errors.Wrapf(err, "failed to list parts of upload %s", uploadID)
	}
	names := make([]string, 0, len(objects))
	for _, object := range objects {
		names = append(names, object.GetName())
	}
	return uploadFolder.DeleteObjects(names)
}

func (multipart *folderMultipart) PutObject(ctx context.Context, name string, content io.Reader) error {
	return multipart.folder.PutObjectWithContext(ctx, name, content)
}

func (multipart *folderMultipart) ReadObject(_ context.Context, name string) (io.ReadCloser, error) {
	return multipart.folder.ReadObject(name)
}

func (multipart *folderMultipart) Exists(_ context.Context, name string) (bool, error) {
	return multipart.folder.Exists(name)
}
