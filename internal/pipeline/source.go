package pipeline

import (
	"context"
	"io"

	"golang.org/x/time/rate"

	"github.com/wal-g/relaysum/internal/relay"
)

const DefaultChunkSize = 64 << 10

type readerSource struct {
	reader    io.Reader
	chunkSize int
	encoding  relay.Encoding
}

// NewReaderSource cuts r into chunks of at most chunkSize bytes.
// Every chunk owns its memory since stages and sinks may retain it.
func NewReaderSource(r io.Reader, chunkSize int, encoding relay.Encoding) Source {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &readerSource{reader: r, chunkSize: chunkSize, encoding: encoding}
}

func (source *readerSource) Next(ctx context.Context) (relay.Chunk, error) {
	buf := make([]byte, source.chunkSize)
	n, err := io.ReadFull(source.reader, buf)
	if n > 0 {
		return relay.Chunk{Data: buf[:n], Encoding: source.encoding}, nil
	}
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	return relay.Chunk{}, err
}

type sliceSource struct {
	chunks []relay.Chunk
}

func NewSliceSource(chunks ...relay.Chunk) Source {
	return &sliceSource{chunks: chunks}
}

func (source *sliceSource) Next(context.Context) (relay.Chunk, error) {
	if len(source.chunks) == 0 {
		return relay.Chunk{}, io.EOF
	}
	chunk := source.chunks[0]
	source.chunks = source.chunks[1:]
	return chunk, nil
}

type limitedSource struct {
	source  Source
	limiter *rate.Limiter
}

// NewLimitedSource throttles src so that at most limiter's rate of bytes per
// second is handed out. Chunks larger than the burst are waited for in slices.
func NewLimitedSource(src Source, limiter *rate.Limiter) Source {
	return &limitedSource{source: src, limiter: limiter}
}

func (source *limitedSource) Next(ctx context.Context) (relay.Chunk, error) {
	chunk, err := source.source.Next(ctx)
	if err != nil {
		return chunk, err
	}
	for remaining := len(chunk.Data); remaining > 0; {
		n := remaining
		if burst := source.limiter.Burst(); burst > 0 && n > burst {
			n = burst
		}
		if err = source.limiter.WaitN(ctx, n); err != nil {
			return relay.Chunk{}, err
		}
		remaining -= n
	}
	return chunk, nil
}
