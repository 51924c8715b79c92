package handlers

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/wal-g/relaysum/internal/checksum"
	"github.com/wal-g/relaysum/internal/multipart"
)

const stdinPath = "-"

func openInput(path string) (io.ReadCloser, error) {
	if path == stdinPath {
		return io.NopCloser(os.Stdin), nil
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open '%s'", path)
	}
	return file, nil
}

// HandleDigest prints the relay digest of the given files taken as one stream, in order.
// Without paths it digests stdin.
func HandleDigest(ctx context.Context, out io.Writer, algorithm checksum.Algorithm, paths []string) error {
	if len(paths) == 0 {
		paths = []string{stdinPath}
	}
	segments := make([]io.Reader, 0, len(paths))
	for _, path := range paths {
		input, err := openInput(path)
		if err != nil {
			return err
		}
		defer input.Close()
		segments = append(segments, input)
	}

	digest, err := multipart.Digest(ctx, algorithm, segments...)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%s  %d  %s\n", digest, digest.Size, strings.Join(paths, " "))
	return err
}
