package multipart

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/wal-g/tracelog"

	"github.com/wal-g/relaysum/internal/checksum"
	"github.com/wal-g/relaysum/internal/pipeline"
	"github.com/wal-g/relaysum/internal/relay"
)

// Digest relays successive segments through chained stages and returns the digest
// of their concatenation. With no segments it is the digest of the empty input.
func Digest(ctx context.Context, algorithm checksum.Algorithm, segments ...io.Reader) (checksum.Digest, error) {
	handoff, err := relay.NewHandoff(algorithm)
	if err != nil {
		return checksum.Digest{}, err
	}
	for i, segment := range segments {
		var next *relay.Handoff
		stage, err := relay.NewStage(handoff, func(h *relay.Handoff) error {
			next = h
			return nil
		}, relay.WithName(fmt.Sprintf("segment %d", i+1)))
		if err != nil {
			return checksum.Digest{}, err
		}
		source := pipeline.NewReaderSource(segment, pipeline.DefaultChunkSize, relay.EncodingBuffer)
		if err = pipeline.Run(ctx, source, stage, pipeline.NewWriterSink(io.Discard)); err != nil {
			return checksum.Digest{}, errors.Wrapf(err, "failed to digest segment %d", i+1)
		}
		handoff = next
	}
	return handoff.Finalize()
}

type DigestMismatchError struct {
	error
}

func NewDigestMismatchError(key string, format string, args ...interface{}) DigestMismatchError {
	return DigestMismatchError{errors.Errorf("verification of '%s' failed: "+format, append([]interface{}{key}, args...)...)}
}

func (err DigestMismatchError) Error() string {
	return fmt.Sprintf(tracelog.GetErrorFormatter(), err.error)
}

// Verify re-reads the object under key and checks it against its manifest:
// every part against its Content-MD5 and the whole object against the relay digest.
func (uploader *Uploader) Verify(ctx context.Context, key string) (*Manifest, error) {
	manifest, err := ReadManifest(ctx, uploader.folder, uploader.serializer, key)
	if err != nil {
		return nil, err
	}
	expected, err := manifest.ObjectDigest()
	if err != nil {
		return nil, err
	}

	object, err := uploader.folder.ReadObject(ctx, key)
	if err != nil {
		return nil, err
	}
	defer object.Close()

	segments := make([]io.Reader, 0, len(manifest.Parts))
	partSums := make([]checksum.Calculator, 0, len(manifest.Parts))
	for _, part := range manifest.Parts {
		calc, err := checksum.NewCalculator(checksum.MD5)
		if err != nil {
			return nil, err
		}
		partSums = append(partSums, calc)
		segments = append(segments, checksum.CreateReaderWithChecksum(io.LimitReader(object, part.Size), calc))
	}

	actual, err := Digest(ctx, expected.Algorithm, segments...)
	if err != nil {
		return nil, err
	}
	extra, err := io.Copy(io.Discard, object)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read '%s'", key)
	}
	if actual.Size != manifest.Size || extra > 0 {
		return nil, NewDigestMismatchError(key, "object has %d bytes, manifest records %d", actual.Size+extra, manifest.Size)
	}

	for i, part := range manifest.Parts {
		if part.ContentMD5 == "" {
			continue
		}
		sum, err := partSums[i].Finalize()
		if err != nil {
			return nil, err
		}
		recorded, err := base64.StdEncoding.DecodeString(part.ContentMD5)
		if err != nil || !bytes.Equal(recorded, sum.Sum) {
			return nil, NewDigestMismatchError(key, "part %d does not match its Content-MD5", part.Number)
		}
	}
	if !actual.Equal(expected) {
		return nil, NewDigestMismatchError(key, "digest %s, manifest records %s", actual, expected)
	}
	tracelog.InfoLogger.Printf("Verified %s: %s\n", key, actual)
	return manifest, nil
}
