package config

import (
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"

	"github.com/wal-g/relaysum/internal/checksum"
	"github.com/wal-g/relaysum/internal/multipart"
	"github.com/wal-g/relaysum/internal/storages/fs"
	"github.com/wal-g/relaysum/internal/storages/s3"
	"github.com/wal-g/relaysum/internal/storages/storage"
)

const defaultDataBurstRateLimit = 8 * 8192

type UnconfiguredStorageError struct {
	error
}

func NewUnconfiguredStorageError() UnconfiguredStorageError {
	return UnconfiguredStorageError{errors.Errorf("no storage is configured, set %s or %s",
		FilePrefixSetting, S3PrefixSetting)}
}

func ConfigureAlgorithm() (checksum.Algorithm, error) {
	return checksum.ParseAlgorithm(viper.GetString(AlgorithmSetting))
}

func ConfigureSerializer() (multipart.DtoSerializer, error) {
	return multipart.NewDtoSerializer(multipart.DtoSerializerType(viper.GetString(SerializerTypeSetting)))
}

// ConfigureLimiter returns nil when no rate limit is set.
func ConfigureLimiter() (*rate.Limiter, error) {
	limit := viper.GetInt64(RateLimitSetting)
	if limit < 0 {
		return nil, errors.Errorf("%s must not be negative, got %d", RateLimitSetting, limit)
	}
	if limit == 0 {
		return nil, nil
	}
	return rate.NewLimiter(rate.Limit(limit), int(limit+defaultDataBurstRateLimit)), nil
}

func ConfigureMultipartFolder() (storage.MultipartFolder, error) {
	if prefix, ok := GetSetting(S3PrefixSetting); ok && prefix != "" {
		return s3.ConfigureFolder(prefix, settingsOf(s3.SettingList))
	}
	if prefix, ok := GetSetting(FilePrefixSetting); ok && prefix != "" {
		folder, err := fs.ConfigureFolder(prefix)
		if err != nil {
			return nil, err
		}
		return storage.NewFolderMultipart(folder), nil
	}
	return nil, NewUnconfiguredStorageError()
}

// ConfigureCheckpointStore returns nil when checkpoints are disabled.
func ConfigureCheckpointStore(serializer multipart.DtoSerializer) (multipart.CheckpointStore, error) {
	prefix, ok := GetSetting(CheckpointPrefixSetting)
	if !ok || prefix == "" {
		return nil, nil
	}
	folder, err := fs.ConfigureFolder(prefix)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to configure %s", CheckpointPrefixSetting)
	}
	return multipart.NewFolderCheckpointStore(folder, serializer), nil
}

func ConfigureUploaderConfig() (multipart.Config, error) {
	algorithm, err := ConfigureAlgorithm()
	if err != nil {
		return multipart.Config{}, err
	}
	config := multipart.Config{
		Algorithm:   algorithm,
		PartSize:    viper.GetInt64(PartSizeSetting),
		ChunkSize:   viper.GetInt(ChunkSizeSetting),
		Concurrency: viper.GetInt(UploadConcurrencySetting),
		Retries:     uint64(viper.GetInt(UploadRetriesSetting)),
	}
	if config.PartSize <= 0 {
		return multipart.Config{}, errors.Errorf("%s must be positive", PartSizeSetting)
	}
	if prefix, ok := GetSetting(S3PrefixSetting); ok && prefix != "" && config.PartSize < s3.MinPartSize {
		return multipart.Config{}, errors.Errorf("%s must be at least %d for S3 storage, got %d",
			PartSizeSetting, s3.MinPartSize, config.PartSize)
	}
	if viper.GetInt(UploadRetriesSetting) < 0 {
		return multipart.Config{}, errors.Errorf("%s must not be negative", UploadRetriesSetting)
	}
	return config, nil
}

func ConfigureUploader() (*multipart.Uploader, error) {
	folder, err := ConfigureMultipartFolder()
	if err != nil {
		return nil, err
	}
	return ConfigureUploaderWithFolder(folder)
}

func ConfigureUploaderWithFolder(folder storage.MultipartFolder) (*multipart.Uploader, error) {
	config, err := ConfigureUploaderConfig()
	if err != nil {
		return nil, err
	}
	serializer, err := ConfigureSerializer()
	if err != nil {
		return nil, err
	}
	opts := []multipart.Option{multipart.WithSerializer(serializer)}

	limiter, err := ConfigureLimiter()
	if err != nil {
		return nil, err
	}
	if limiter != nil {
		opts = append(opts, multipart.WithLimiter(limiter))
	}

	checkpoints, err := ConfigureCheckpointStore(serializer)
	if err != nil {
		return nil, err
	}
	if checkpoints != nil {
		opts = append(opts, multipart.WithCheckpoints(checkpoints))
	}
	return multipart.NewUploader(folder, config, opts...)
}

func settingsOf(keys []string) map[string]string {
	settings := make(map[string]string)
	for _, key := range keys {
		if value, ok := GetSetting(key); ok {
			settings[key] = value
		}
	}
	return settings
}
