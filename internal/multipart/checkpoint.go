package multipart

import (
	"context"
	"encoding/base64"

	"github.com/pkg/errors"

	"github.com/wal-g/relaysum/internal/checksum"
	"github.com/wal-g/relaysum/internal/relay"
	"github.com/wal-g/relaysum/internal/storages/storage"
)

const CheckpointSuffix = ".checkpoint.json"

// Checkpoint records a contiguous prefix of uploaded parts together with the
// relay accumulator state right after the last of them.
type Checkpoint struct {
	Key       string                  `json:"key"`
	UploadID  string                  `json:"upload_id"`
	Algorithm string                  `json:"algorithm"`
	PartSize  int64                   `json:"part_size"`
	Parts     []storage.CompletedPart `json:"parts"`
	State     string                  `json:"state"`
	Written   int64                   `json:"written"`
}

func (checkpoint *Checkpoint) validate() error {
	if checkpoint.Key == "" || checkpoint.UploadID == "" {
		return NewInvalidDtoError("checkpoint", checkpoint.Key, "key and upload id are required")
	}
	_, err := validateParts("checkpoint", checkpoint.Key, checkpoint.Parts)
	return err
}

func (checkpoint *Checkpoint) handoff() (*relay.Handoff, error) {
	algorithm, err := checksum.ParseAlgorithm(checkpoint.Algorithm)
	if err != nil {
		return nil, err
	}
	state, err := base64.StdEncoding.DecodeString(checkpoint.State)
	if err != nil {
		return nil, errors.Wrapf(err, "malformed relay state in checkpoint of '%s'", checkpoint.Key)
	}
	return relay.RestoreHandoff(algorithm, state, checkpoint.Written)
}

// CheckpointStore persists checkpoints between attempts of the same upload.
type CheckpointStore interface {
	Load(ctx context.Context, key string) (*Checkpoint, error)
	Save(ctx context.Context, checkpoint *Checkpoint) error
	Delete(ctx context.Context, key string) error
}

type folderCheckpointStore struct {
	folder     storage.Folder
	serializer DtoSerializer
}

// NewFolderCheckpointStore keeps checkpoints as <key>.checkpoint.json objects in folder.
func NewFolderCheckpointStore(folder storage.Folder, serializer DtoSerializer) CheckpointStore {
	return &folderCheckpointStore{folder: folder, serializer: serializer}
}

// Load returns nil without error when no checkpoint exists.
func (store *folderCheckpointStore) Load(_ context.Context, key string) (*Checkpoint, error) {
	reader, err := store.folder.ReadObject(key + CheckpointSuffix)
	if storage.IsObjectNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read checkpoint of '%s'", key)
	}
	defer reader.Close()
	checkpoint := &Checkpoint{}
	if err = unmarshalDto(store.serializer, reader, checkpoint); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal checkpoint of '%s'", key)
	}
	return checkpoint, nil
}

func (store *folderCheckpointStore) Save(ctx context.Context, checkpoint *Checkpoint) error {
	reader, err := store.serializer.Marshal(checkpoint)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal checkpoint of '%s'", checkpoint.Key)
	}
	return errors.Wrapf(store.folder.PutObjectWithContext(ctx, checkpoint.Key+CheckpointSuffix, reader),
		"failed to save checkpoint of '%s'", checkpoint.Key)
}

func (store *folderCheckpointStore) Delete(_ context.Context, key string) error {
	return store.folder.DeleteObjects([]string{key + CheckpointSuffix})
}
