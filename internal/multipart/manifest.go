package multipart

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/wal-g/relaysum/internal/checksum"
	"github.com/wal-g/relaysum/internal/storages/storage"
)

const ManifestSuffix = ".relaysum.json"

// Manifest describes a finished upload: the relay digest of the whole object
// and the parts it was assembled from.
type Manifest struct {
	Key       string                  `json:"key"`
	UploadID  string                  `json:"upload_id"`
	Algorithm string                  `json:"algorithm"`
	Digest    string                  `json:"digest"`
	Size      int64                   `json:"size"`
	PartSize  int64                   `json:"part_size"`
	Parts     []storage.CompletedPart `json:"parts"`
	CreatedAt string                  `json:"created_at"`
}

func ManifestName(key string) string {
	return key + ManifestSuffix
}

func newManifest(key, uploadID string, partSize int64, digest checksum.Digest, parts []storage.CompletedPart) *Manifest {
	return &Manifest{
		Key:       key,
		UploadID:  uploadID,
		Algorithm: string(digest.Algorithm),
		Digest:    digest.Hex(),
		Size:      digest.Size,
		PartSize:  partSize,
		Parts:     parts,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

func (manifest *Manifest) validate() error {
	if manifest.Key == "" {
		return NewInvalidDtoError("manifest", manifest.Key, "key is empty")
	}
	if _, err := checksum.ParseAlgorithm(manifest.Algorithm); err != nil {
		return NewInvalidDtoError("manifest", manifest.Key, "%v", err)
	}
	size, err := validateParts("manifest", manifest.Key, manifest.Parts)
	if err != nil {
		return err
	}
	if size != manifest.Size {
		return NewInvalidDtoError("manifest", manifest.Key, "parts add up to %d bytes, size is %d", size, manifest.Size)
	}
	return nil
}

// ObjectDigest returns the digest recorded in the manifest.
func (manifest *Manifest) ObjectDigest() (checksum.Digest, error) {
	digest, err := checksum.ParseDigest(manifest.Algorithm + ":" + manifest.Digest)
	if err != nil {
		return checksum.Digest{}, errors.Wrapf(err, "malformed digest in manifest of '%s'", manifest.Key)
	}
	digest.Size = manifest.Size
	return digest, nil
}

func WriteManifest(ctx context.Context, folder storage.MultipartFolder, serializer DtoSerializer, manifest *Manifest) error {
	reader, err := serializer.Marshal(manifest)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal manifest of '%s'", manifest.Key)
	}
	return errors.Wrapf(folder.PutObject(ctx, ManifestName(manifest.Key), reader),
		"failed to upload manifest of '%s'", manifest.Key)
}

func ReadManifest(ctx context.Context, folder storage.MultipartFolder, serializer DtoSerializer, key string) (*Manifest, error) {
	reader, err := folder.ReadObject(ctx, ManifestName(key))
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	manifest := &Manifest{}
	if err = unmarshalDto(serializer, reader, manifest); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal manifest of '%s'", key)
	}
	return manifest, nil
}
