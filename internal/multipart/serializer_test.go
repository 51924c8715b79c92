package multipart_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wal-g/relaysum/internal/multipart"
	"github.com/wal-g/relaysum/internal/storages/storage"
)

func TestDtoSerializer_NewDtoSerializer(t *testing.T) {
	tests := []struct {
		name            string
		serializerType  multipart.DtoSerializerType
		expectedDto     multipart.DtoSerializer
		expectedErrText string
	}{
		{
			name:            "RegularJSON_if_json_default",
			serializerType:  "json_default",
			expectedDto:     multipart.RegularJSON{},
			expectedErrText: "",
		},
		{
			name:            "StreamedJSON_if_json_streamed",
			serializerType:  "json_streamed",
			expectedDto:     multipart.StreamedJSON{},
			expectedErrText: "",
		},
		{
			name:            "error_if_unknown_type",
			serializerType:  "ff",
			expectedDto:     nil,
			expectedErrText: "undefined dto serializer type: ff",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dto, err := multipart.NewDtoSerializer(tt.serializerType)

			if tt.expectedErrText == "" {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, tt.expectedErrText, "Errors not same")
			}
			assert.Equalf(t, tt.expectedDto, dto, "Expected different dto")
		})
	}
}

func TestSerializersAgreeOnManifest(t *testing.T) {
	manifest := &multipart.Manifest{
		Key:       "objects/blob",
		UploadID:  "upload-1",
		Algorithm: "md5",
		Digest:    "e80b5017098950fc58aad83c8c14978e",
		Size:      6,
		PartSize:  3,
		Parts: []storage.CompletedPart{
			{Number: 1, ETag: "etag-1", Size: 3, ContentMD5: "kAFQmDzST7DWlj99KOF/cg=="},
			{Number: 2, ETag: "etag-2", Size: 3, ContentMD5: "UuoYnQcCNipPq2d9QzJHMQ=="},
		},
		CreatedAt: "2024-01-02T03:04:05Z",
	}

	for _, serializer := range []multipart.DtoSerializer{multipart.RegularJSON{}, multipart.StreamedJSON{}} {
		reader, err := serializer.Marshal(manifest)
		require.NoError(t, err)
		decoded := &multipart.Manifest{}
		require.NoError(t, serializer.Unmarshal(reader, decoded))
		assert.Equal(t, manifest, decoded)
	}
}
