package multipart

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/pkg/errors"
	streamJSON "github.com/wal-g/json"
	"github.com/wal-g/tracelog"

	"github.com/wal-g/relaysum/internal/storages/storage"
)

type UnknownSerializerTypeError struct {
	error
}

func NewUnknownSerializerTypeError(serializerType DtoSerializerType) UnknownSerializerTypeError {
	return UnknownSerializerTypeError{fmt.Errorf("undefined dto serializer type: %s", serializerType)}
}

func (err UnknownSerializerTypeError) Error() string {
	return fmt.Sprintf(tracelog.GetErrorFormatter(), err.error)
}

// InvalidDtoError is returned for a manifest or checkpoint that decodes
// but does not describe a consistent upload.
type InvalidDtoError struct {
	error
}

func NewInvalidDtoError(kind, key, format string, args ...interface{}) InvalidDtoError {
	return InvalidDtoError{errors.Errorf("invalid %s of '%s': "+format, append([]interface{}{kind, key}, args...)...)}
}

func (err InvalidDtoError) Error() string {
	return fmt.Sprintf(tracelog.GetErrorFormatter(), err.error)
}

type DtoSerializerType string

const (
	RegularJSONSerializer  DtoSerializerType = "json_default"
	StreamedJSONSerializer DtoSerializerType = "json_streamed"
)

// DtoSerializer encodes manifests and checkpoints.
type DtoSerializer interface {
	Marshal(dto interface{}) (io.Reader, error)
	Unmarshal(reader io.Reader, dto interface{}) error
}

func NewDtoSerializer(serializerType DtoSerializerType) (DtoSerializer, error) {
	switch serializerType {
	case RegularJSONSerializer:
		return RegularJSON{}, nil
	case StreamedJSONSerializer:
		return StreamedJSON{}, nil
	default:
		return nil, NewUnknownSerializerTypeError(serializerType)
	}
}

type validatedDto interface {
	validate() error
}

// unmarshalDto decodes dto and checks its consistency.
func unmarshalDto(serializer DtoSerializer, reader io.Reader, dto validatedDto) error {
	if err := serializer.Unmarshal(reader, dto); err != nil {
		return err
	}
	return dto.validate()
}

// validateParts checks that parts are numbered 1..n and returns their total size.
func validateParts(kind, key string, parts []storage.CompletedPart) (int64, error) {
	var size int64
	for i, part := range parts {
		if part.Number != i+1 {
			return 0, NewInvalidDtoError(kind, key, "part %d is listed at position %d", part.Number, i+1)
		}
		if part.Size < 0 {
			return 0, NewInvalidDtoError(kind, key, "part %d has negative size", part.Number)
		}
		size += part.Size
	}
	return size, nil
}

var _ DtoSerializer = RegularJSON{}

type RegularJSON struct{}

func (r RegularJSON) Marshal(dto interface{}) (io.Reader, error) {
	data, err := json.Marshal(dto)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

func (r RegularJSON) Unmarshal(reader io.Reader, dto interface{}) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dto)
}

var _ DtoSerializer = StreamedJSON{}

// StreamedJSON encodes without holding the whole document in memory.
type StreamedJSON struct{}

func (s StreamedJSON) Marshal(dto interface{}) (io.Reader, error) {
	r, w := io.Pipe()
	go func() {
		err := streamJSON.Marshal(dto, w)
		_ = w.CloseWithError(err)
	}()
	return r, nil
}

func (s StreamedJSON) Unmarshal(reader io.Reader, dto interface{}) error {
	return streamJSON.Unmarshal(reader, dto)
}
