// Package pipeline drives relay stages: it pulls chunks from a Source, passes
// them through a stage and pushes whatever the stage forwards to a Sink.
// Everything runs on the caller's goroutine, one chunk at a time.
package pipeline

import (
	"context"
	"io"

	"github.com/pkg/errors"

	"github.com/wal-g/relaysum/internal/relay"
)

//go:generate mockgen -destination=../../testtools/mock_sink.go -package testtools github.com/wal-g/relaysum/internal/pipeline Sink

// Source yields chunks in stream order and io.EOF once exhausted.
type Source interface {
	Next(ctx context.Context) (relay.Chunk, error)
}

// Sink receives forwarded chunks. End is the end-of-stream signal.
type Sink interface {
	Push(chunk relay.Chunk) error
	End() error
}

// Run pumps src through stage into dst. On success the stage's completion handler
// has returned before dst.End is called. On any failure the stage is aborted,
// its handler is not invoked and dst.End is not called.
func Run(ctx context.Context, src Source, stage *relay.Stage, dst Sink) error {
	for {
		if err := ctx.Err(); err != nil {
			stage.Abort(err)
			return err
		}
		chunk, err := src.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			stage.Abort(err)
			return errors.Wrap(err, "failed to read chunk from source")
		}
		forwarded, err := stage.Process(chunk)
		if err != nil {
			return err
		}
		if err = dst.Push(forwarded); err != nil {
			stage.Abort(err)
			return errors.Wrap(err, "failed to push chunk downstream")
		}
	}

	if err := stage.End(); err != nil {
		return err
	}
	return errors.Wrap(dst.End(), "failed to end downstream")
}

// Copy relays everything from r to w through stage, in chunks of chunkSize bytes.
func Copy(ctx context.Context, w io.Writer, r io.Reader, stage *relay.Stage, chunkSize int) error {
	return Run(ctx, NewReaderSource(r, chunkSize, relay.EncodingBuffer), stage, NewWriterSink(w))
}
