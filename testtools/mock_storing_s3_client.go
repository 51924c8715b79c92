package testtools

import (
	"bytes"
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// MockStoringS3Client keeps objects and multipart uploads in memory. Includes these methods:
// CreateMultipartUploadWithContext, UploadPartWithContext, CompleteMultipartUploadWithContext,
// AbortMultipartUploadWithContext, PutObjectWithContext, GetObjectWithContext, HeadObjectWithContext
type MockStoringS3Client struct {
	s3iface.S3API

	mutex   sync.Mutex
	objects map[string][]byte
	uploads map[string]map[int64][]byte
	counter int

	// PartCalls counts UploadPartWithContext invocations, failed ones included.
	PartCalls int
	// FailParts makes the next FailParts part uploads fail with a retryable error.
	FailParts int
}

func NewMockStoringS3Client() *MockStoringS3Client {
	return &MockStoringS3Client{
		objects: map[string][]byte{},
		uploads: map[string]map[int64][]byte{},
	}
}

func objectID(bucket, key *string) string {
	return aws.StringValue(bucket) + "/" + aws.StringValue(key)
}

func (client *MockStoringS3Client) Object(bucket, key string) ([]byte, bool) {
	client.mutex.Lock()
	defer client.mutex.Unlock()
	data, ok := client.objects[bucket+"/"+key]
	return data, ok
}

func (client *MockStoringS3Client) PendingUploads() int {
	client.mutex.Lock()
	defer client.mutex.Unlock()
	return len(client.uploads)
}

func (client *MockStoringS3Client) CreateMultipartUploadWithContext(_ aws.Context,
	input *s3.CreateMultipartUploadInput, _ ...request.Option) (*s3.CreateMultipartUploadOutput, error) {
	client.mutex.Lock()
	defer client.mutex.Unlock()
	client.counter++
	uploadID := fmt.Sprintf("upload-%d", client.counter)
	client.uploads[uploadID] = map[int64][]byte{}
	return &s3.CreateMultipartUploadOutput{
		Bucket:   input.Bucket,
		Key:      input.Key,
		UploadId: aws.String(uploadID),
	}, nil
}

func (client *MockStoringS3Client) UploadPartWithContext(_ aws.Context,
	input *s3.UploadPartInput, _ ...request.Option) (*s3.UploadPartOutput, error) {
	client.mutex.Lock()
	defer client.mutex.Unlock()
	client.PartCalls++
	if client.FailParts > 0 {
		client.FailParts--
		return nil, awserr.New("RequestTimeout", "mock UploadPart timeout", nil)
	}
	parts, ok := client.uploads[aws.StringValue(input.UploadId)]
	if !ok {
		return nil, awserr.New("NoSuchUpload", "mock upload does not exist", nil)
	}
	body, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	sum := md5.Sum(body)
	if input.ContentMD5 != nil && aws.StringValue(input.ContentMD5) != base64.StdEncoding.EncodeToString(sum[:]) {
		return nil, awserr.New("BadDigest", "mock Content-MD5 mismatch", nil)
	}
	parts[aws.Int64Value(input.PartNumber)] = body
	return &s3.UploadPartOutput{ETag: aws.String(`"` + hex.EncodeToString(sum[:]) + `"`)}, nil
}

func (client *MockStoringS3Client) CompleteMultipartUploadWithContext(_ aws.Context,
	input *s3.CompleteMultipartUploadInput, _ ...request.Option) (*s3.CompleteMultipartUploadOutput, error) {
	client.mutex.Lock()
	defer client.mutex.Unlock()
	parts, ok := client.uploads[aws.StringValue(input.UploadId)]
	if !ok {
		return nil, awserr.New("NoSuchUpload", "mock upload does not exist", nil)
	}
	var object bytes.Buffer
	for _, part := range input.MultipartUpload.Parts {
		body, ok := parts[aws.Int64Value(part.PartNumber)]
		if !ok {
			return nil, awserr.New("InvalidPart", "mock part was not uploaded", nil)
		}
		object.Write(body)
	}
	client.objects[objectID(input.Bucket, input.Key)] = object.Bytes()
	delete(client.uploads, aws.StringValue(input.UploadId))
	return &s3.CompleteMultipartUploadOutput{Bucket: input.Bucket, Key: input.Key}, nil
}

func (client *MockStoringS3Client) AbortMultipartUploadWithContext(_ aws.Context,
	input *s3.AbortMultipartUploadInput, _ ...request.Option) (*s3.AbortMultipartUploadOutput, error) {
	client.mutex.Lock()
	defer client.mutex.Unlock()
	if _, ok := client.uploads[aws.StringValue(input.UploadId)]; !ok {
		return nil, awserr.New("NoSuchUpload", "mock upload does not exist", nil)
	}
	delete(client.uploads, aws.StringValue(input.UploadId))
	return &s3.AbortMultipartUploadOutput{}, nil
}

func (client *MockStoringS3Client) PutObjectWithContext(_ aws.Context,
	input *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	client.mutex.Lock()
	defer client.mutex.Unlock()
	client.objects[objectID(input.Bucket, input.Key)] = body
	return &s3.PutObjectOutput{}, nil
}

func (client *MockStoringS3Client) GetObjectWithContext(_ aws.Context,
	input *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	client.mutex.Lock()
	defer client.mutex.Unlock()
	body, ok := client.objects[objectID(input.Bucket, input.Key)]
	if !ok {
		return nil, awserr.New("NoSuchKey", "mock object does not exist", nil)
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: aws.Int64(int64(len(body))),
	}, nil
}

func (client *MockStoringS3Client) HeadObjectWithContext(_ aws.Context,
	input *s3.HeadObjectInput, _ ...request.Option) (*s3.HeadObjectOutput, error) {
	client.mutex.Lock()
	defer client.mutex.Unlock()
	body, ok := client.objects[objectID(input.Bucket, input.Key)]
	if !ok {
		return nil, awserr.New("NotFound", "mock object does not exist", nil)
	}
	return &s3.HeadObjectOutput{ContentLength: aws.Int64(int64(len(body)))}, nil
}
