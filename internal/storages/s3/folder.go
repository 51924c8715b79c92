package s3

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/pkg/errors"
	"github.com/wal-g/tracelog"

	"github.com/wal-g/relaysum/internal/checksum"
	"github.com/wal-g/relaysum/internal/storages/storage"
)

const (
	NotFoundAWSErrorCode  = "NotFound"
	NoSuchKeyAWSErrorCode = "NoSuchKey"
	NoSuchUploadErrorCode = "NoSuchUpload"
	BadDigestErrorCode    = "BadDigest"

	DefaultStorageClass = "STANDARD"

	// MinPartSize is the smallest size S3 accepts for every part but the last.
	MinPartSize = 5 << 20
)

func NewFolderError(err error, format string, args ...interface{}) storage.Error {
	return storage.NewError(err, "S3", format, args...)
}

// Folder is a native S3 multipart target rooted at bucket/path.
type Folder struct {
	client       s3iface.S3API
	bucket       string
	path         string
	storageClass string
}

var _ storage.MultipartFolder = &Folder{}

func NewFolder(client s3iface.S3API, bucket, path, storageClass string) *Folder {
	if storageClass == "" {
		storageClass = DefaultStorageClass
	}
	return &Folder{
		client:       client,
		bucket:       bucket,
		path:         storage.AddDelimiterToPath(strings.TrimPrefix(path, "/")),
		storageClass: storageClass,
	}
}

func (folder *Folder) objectKey(name string) *string {
	return aws.String(folder.path + strings.TrimPrefix(name, "/"))
}

func (folder *Folder) CreateUpload(ctx context.Context, key string) (string, error) {
	output, err := folder.client.CreateMultipartUploadWithContext(ctx, &s3.CreateMultipartUploadInput{
		Bucket:       aws.String(folder.bucket),
		Key:          folder.objectKey(key),
		StorageClass: aws.String(folder.storageClass),
	})
	if err != nil {
		return "", NewFolderError(err, "failed to create multipart upload of '%s'", key)
	}
	uploadID := aws.StringValue(output.UploadId)
	tracelog.DebugLogger.Printf("Created S3 multipart upload %s of %s\n", uploadID, key)
	return uploadID, nil
}

func (folder *Folder) UploadPart(ctx context.Context, key, uploadID string, number int,
	body []byte, contentMD5 []byte) (string, error) {
	input := &s3.UploadPartInput{
		Bucket:        aws.String(folder.bucket),
		Key:           folder.objectKey(key),
		UploadId:      aws.String(uploadID),
		PartNumber:    aws.Int64(int64(number)),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
	}
	if len(contentMD5) > 0 {
		input.ContentMD5 = aws.String(checksum.Digest{Sum: contentMD5}.Base64())
	}
	output, err := folder.client.UploadPartWithContext(ctx, input)
	if err != nil {
		return "", folder.translateError(err, key, uploadID, number)
	}
	return strings.Trim(aws.StringValue(output.ETag), `"`), nil
}

func (folder *Folder) CompleteUpload(ctx context.Context, key, uploadID string, parts []storage.CompletedPart) error {
	completed := make([]*s3.CompletedPart, 0, len(parts))
	for _, part := range parts {
		completed = append(completed, &s3.CompletedPart{
			ETag:       aws.String(part.ETag),
			PartNumber: aws.Int64(int64(part.Number)),
		})
	}
	sort.Slice(completed, func(i, j int) bool {
		return aws.Int64Value(completed[i].PartNumber) < aws.Int64Value(completed[j].PartNumber)
	})
	_, err := folder.client.CompleteMultipartUploadWithContext(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:          aws.String(folder.bucket),
		Key:             folder.objectKey(key),
		UploadId:        aws.String(uploadID),
		MultipartUpload: &s3.CompletedMultipartUpload{Parts: completed},
	})
	if err != nil {
		return folder.translateError(err, key, uploadID, 0)
	}
	return nil
}

func (folder *Folder) AbortUpload(ctx context.Context, key, uploadID string) error {
	_, err := folder.client.AbortMultipartUploadWithContext(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(folder.bucket),
		Key:      folder.objectKey(key),
		UploadId: aws.String(uploadID),
	})
	if err != nil {
		return folder.translateError(err, key, uploadID, 0)
	}
	return nil
}

func (folder *Folder) PutObject(ctx context.Context, name string, content io.Reader) error {
	data, err := io.ReadAll(content)
	if err != nil {
		return errors.Wrapf(err, "failed to read content of '%s'", name)
	}
	_, err = folder.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(folder.bucket),
		Key:          folder.objectKey(name),
		Body:         bytes.NewReader(data),
		StorageClass: aws.String(folder.storageClass),
	})
	if err != nil {
		return NewFolderError(err, "failed to upload '%s' to bucket '%s'", name, folder.bucket)
	}
	return nil
}

func (folder *Folder) ReadObject(ctx context.Context, name string) (io.ReadCloser, error) {
	output, err := folder.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(folder.bucket),
		Key:    folder.objectKey(name),
	})
	if err != nil {
		if isAWSErrorCode(err, NoSuchKeyAWSErrorCode, NotFoundAWSErrorCode) {
			return nil, storage.NewObjectNotFoundError(aws.StringValue(folder.objectKey(name)))
		}
		return nil, NewFolderError(err, "failed to read object '%s'", name)
	}
	return output.Body, nil
}

func (folder *Folder) Exists(ctx context.Context, name string) (bool, error) {
	_, err := folder.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(folder.bucket),
		Key:    folder.objectKey(name),
	})
	if err != nil {
		if isAWSErrorCode(err, NotFoundAWSErrorCode, NoSuchKeyAWSErrorCode) {
			return false, nil
		}
		return false, NewFolderError(err, "failed to check existence of '%s'", name)
	}
	return true, nil
}

func (folder *Folder) translateError(err error, key, uploadID string, number int) error {
	switch {
	case isAWSErrorCode(err, NoSuchUploadErrorCode):
		return storage.NewUploadNotFoundError(key, uploadID)
	case isAWSErrorCode(err, BadDigestErrorCode):
		return storage.NewBadDigestError(key, number)
	default:
		return NewFolderError(err, "multipart upload %s of '%s' failed", uploadID, key)
	}
}

func isAWSErrorCode(err error, codes ...string) bool {
	var awsErr awserr.Error
	if !errors.As(err, &awsErr) {
		return false
	}
	for _, code := range codes {
		if awsErr.Code() == code {
			return true
		}
	}
	return false
}
