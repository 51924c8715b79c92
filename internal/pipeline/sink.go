package pipeline

import (
	"io"

	"github.com/wal-g/relaysum/internal/relay"
)

type writerSink struct {
	writer io.Writer
}

// NewWriterSink writes chunk payloads to w; End closes w if it is an io.Closer.
func NewWriterSink(w io.Writer) Sink {
	return &writerSink{writer: w}
}

func (sink *writerSink) Push(chunk relay.Chunk) error {
	n, err := sink.writer.Write(chunk.Data)
	if err == nil && n < len(chunk.Data) {
		return io.ErrShortWrite
	}
	return err
}

func (sink *writerSink) End() error {
	if closer, ok := sink.writer.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// CollectingSink keeps every chunk it receives.
type CollectingSink struct {
	Chunks []relay.Chunk
	Ended  bool
	// OnEnd, if set, runs when the end-of-stream signal arrives.
	OnEnd func()
}

func (sink *CollectingSink) Push(chunk relay.Chunk) error {
	sink.Chunks = append(sink.Chunks, chunk)
	return nil
}

func (sink *CollectingSink) End() error {
	sink.Ended = true
	if sink.OnEnd != nil {
		sink.OnEnd()
	}
	return nil
}

// Bytes concatenates the payloads received so far.
func (sink *CollectingSink) Bytes() []byte {
	var out []byte
	for _, chunk := range sink.Chunks {
		out = append(out, chunk.Data...)
	}
	return out
}
