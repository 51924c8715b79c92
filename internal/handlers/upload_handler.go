package handlers

import (
	"context"
	"fmt"
	"io"

	"github.com/wal-g/relaysum/internal/multipart"
)

// HandleUpload uploads the local file at path (or stdin for "-") under key.
func HandleUpload(ctx context.Context, out io.Writer, uploader *multipart.Uploader, path, key string) error {
	input, err := openInput(path)
	if err != nil {
		return err
	}
	defer input.Close()

	manifest, err := uploader.Upload(ctx, key, input)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%s  %s:%s  %d bytes in %d parts\n",
		manifest.Key, manifest.Algorithm, manifest.Digest, manifest.Size, len(manifest.Parts))
	return err
}

// HandleVerify checks the object under key against its manifest.
func HandleVerify(ctx context.Context, out io.Writer, uploader *multipart.Uploader, key string) error {
	manifest, err := uploader.Verify(ctx, key)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%s  %s:%s  OK\n", manifest.Key, manifest.Algorithm, manifest.Digest)
	return err
}
