package storage

import (
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// ParsePrefixAsURL splits a storage prefix like s3://bucket/path into its host and path.
func ParsePrefixAsURL(prefix string) (host, path string, err error) {
	storageURL, err := url.Parse(prefix)
	if err != nil {
		return "", "", errors.Wrapf(err, "failed to parse storage prefix '%s'", prefix)
	}
	if storageURL.Scheme == "" || storageURL.Host == "" {
		return "", "", errors.Errorf("missing url scheme=%q and/or host=%q in prefix '%s'",
			storageURL.Scheme, storageURL.Host, prefix)
	}
	return storageURL.Host, storageURL.Path, nil
}

func GetPathFromPrefix(prefix string) (bucket, path string, err error) {
	bucket, path, err = ParsePrefixAsURL(prefix)
	if err != nil {
		return "", "", err
	}
	return bucket, strings.TrimPrefix(path, "/"), nil
}
