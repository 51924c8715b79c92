package s3

import (
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/client"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/defaults"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/pkg/errors"

	"github.com/wal-g/relaysum/internal/storages/storage"
)

const (
	AccessKeyIDSetting     = "AWS_ACCESS_KEY_ID"
	SecretAccessKeySetting = "AWS_SECRET_ACCESS_KEY"
	SessionTokenSetting    = "AWS_SESSION_TOKEN"
	RegionSetting          = "AWS_REGION"
	EndpointSetting        = "AWS_ENDPOINT"
	ForcePathStyleSetting  = "AWS_S3_FORCE_PATH_STYLE"
	StorageClassSetting    = "RELAYSUM_S3_STORAGE_CLASS"
	MaxRetriesSetting      = "RELAYSUM_S3_MAX_RETRIES"

	MaxRetriesDefault = 15
	defaultRegion     = "us-east-1"
)

var SettingList = []string{
	AccessKeyIDSetting,
	SecretAccessKeySetting,
	SessionTokenSetting,
	RegionSetting,
	EndpointSetting,
	ForcePathStyleSetting,
	StorageClassSetting,
	MaxRetriesSetting,
}

// Given an S3 bucket name, attempt to determine its region
func findBucketRegion(bucket string, config *aws.Config) (string, error) {
	sess, err := session.NewSession(config.Copy().WithRegion(defaultRegion))
	if err != nil {
		return "", err
	}
	output, err := s3.New(sess).GetBucketLocation(&s3.GetBucketLocationInput{Bucket: aws.String(bucket)})
	if err != nil {
		return "", err
	}
	if output.LocationConstraint == nil {
		// buckets in "US Standard" are returned as a nil region
		return defaultRegion, nil
	}
	return *output.LocationConstraint, nil
}

func getAWSRegion(bucket string, config *aws.Config, settings map[string]string) (string, error) {
	if region, ok := settings[RegionSetting]; ok {
		return region, nil
	}
	if config.Endpoint == nil ||
		*config.Endpoint == "" ||
		strings.HasSuffix(*config.Endpoint, ".amazonaws.com") {
		region, err := findBucketRegion(bucket, config)
		return region, errors.Wrapf(err, "%s is not set and s3:GetBucketLocation failed", RegionSetting)
	}
	// S3 compatible services like Minio accept any region
	return defaultRegion, nil
}

func configWithSettings(s *session.Session, bucket string, settings map[string]string) (*aws.Config, error) {
	maxRetries := MaxRetriesDefault
	if maxRetriesRaw, ok := settings[MaxRetriesSetting]; ok {
		parsed, err := strconv.Atoi(maxRetriesRaw)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse %s", MaxRetriesSetting)
		}
		maxRetries = parsed
	}
	config := s.Config
	config = request.WithRetryer(config, NewConnResetRetryer(client.DefaultRetryer{NumMaxRetries: maxRetries}))

	accessKeyID := settings[AccessKeyIDSetting]
	secretAccessKey := settings[SecretAccessKeySetting]
	if accessKeyID != "" && secretAccessKey != "" {
		providers := []credentials.Provider{&credentials.StaticProvider{Value: credentials.Value{
			AccessKeyID:     accessKeyID,
			SecretAccessKey: secretAccessKey,
			SessionToken:    settings[SessionTokenSetting],
		}}}
		providers = append(providers, defaults.CredProviders(config, defaults.Handlers())...)
		config = config.WithCredentials(credentials.NewCredentials(&credentials.ChainProvider{
			VerboseErrors: aws.BoolValue(config.CredentialsChainVerboseErrors),
			Providers:     providers,
		}))
	}

	if endpoint, ok := settings[EndpointSetting]; ok {
		config = config.WithEndpoint(endpoint)
	}

	if forcePathStyleRaw, ok := settings[ForcePathStyleSetting]; ok {
		forcePathStyle, err := strconv.ParseBool(forcePathStyleRaw)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse %s", ForcePathStyleSetting)
		}
		config = config.WithS3ForcePathStyle(forcePathStyle)
	}

	region, err := getAWSRegion(bucket, config, settings)
	if err != nil {
		return nil, err
	}
	return config.WithRegion(region), nil
}

func createSession(bucket string, settings map[string]string) (*session.Session, error) {
	s, err := session.NewSession()
	if err != nil {
		return nil, err
	}
	c, err := configWithSettings(s, bucket, settings)
	if err != nil {
		return nil, err
	}
	s.Config = c
	return s, nil
}

// ConfigureFolder builds a multipart target from a prefix like s3://bucket/path.
func ConfigureFolder(prefix string, settings map[string]string) (*Folder, error) {
	bucket, path, err := storage.GetPathFromPrefix(prefix)
	if err != nil {
		return nil, errors.Wrap(err, "failed to configure S3 path")
	}
	sess, err := createSession(bucket, settings)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create new session")
	}
	return NewFolder(s3.New(sess), bucket, path, settings[StorageClassSetting]), nil
}
