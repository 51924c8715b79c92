package splitmerge

import (
	"bufio"
	"io"

	"github.com/pkg/errors"
)

// PartSplitter cuts a stream into consecutive parts of at most partSize bytes.
// Parts must be consumed in order: Next invalidates the previous part.
// A stream that is empty from the start still yields one empty part.
type PartSplitter struct {
	reader   *bufio.Reader
	partSize int64
	parts    int
	current  *io.LimitedReader
}

func NewPartSplitter(reader io.Reader, partSize int64) (*PartSplitter, error) {
	if partSize <= 0 {
		return nil, errors.Errorf("part size must be positive, got %d", partSize)
	}
	return &PartSplitter{reader: bufio.NewReader(reader), partSize: partSize}, nil
}

// Next returns the reader of the next part, or io.EOF when the stream is exhausted.
// Bytes of the previous part that were not read are discarded.
func (splitter *PartSplitter) Next() (io.Reader, error) {
	if err := splitter.drainCurrent(); err != nil {
		return nil, err
	}
	if splitter.parts > 0 {
		if _, err := splitter.reader.Peek(1); err == io.EOF {
			return nil, io.EOF
		} else if err != nil {
			return nil, errors.Wrap(err, "failed to read next part")
		}
	}
	splitter.parts++
	splitter.current = &io.LimitedReader{R: splitter.reader, N: splitter.partSize}
	return splitter.current, nil
}

// Skip discards the next n parts without returning them.
func (splitter *PartSplitter) Skip(n int) error {
	for i := 0; i < n; i++ {
		if _, err := splitter.Next(); err != nil {
			if err == io.EOF {
				return errors.Errorf("stream ended after %d parts, cannot skip %d", splitter.parts, n)
			}
			return err
		}
	}
	return splitter.drainCurrent()
}

// Parts returns how many parts were handed out so far.
func (splitter *PartSplitter) Parts() int {
	return splitter.parts
}

func (splitter *PartSplitter) drainCurrent() error {
	if splitter.current == nil {
		return nil
	}
	_, err := io.Copy(io.Discard, splitter.current)
	splitter.current = nil
	return errors.Wrap(err, "failed to discard part remainder")
}
