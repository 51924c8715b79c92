package relay

import "io"

type closerWithError interface {
	CloseWithError(err error) error
}

type stageWriter struct {
	stage      *Stage
	downstream io.Writer
}

var _ io.WriteCloser = &stageWriter{}

// NewWriter exposes stage as an io.WriteCloser forwarding to downstream.
// Close completes the stage and closes downstream only after the handler returned;
// on failure downstream is closed with the error when it supports CloseWithError.
func NewWriter(stage *Stage, downstream io.Writer) io.WriteCloser {
	return &stageWriter{stage: stage, downstream: downstream}
}

func (writer *stageWriter) Write(data []byte) (int, error) {
	chunk, err := writer.stage.Process(NewChunk(data))
	if err != nil {
		writer.fail(err)
		return 0, err
	}
	n, err := writer.downstream.Write(chunk.Data)
	if err == nil && n < len(chunk.Data) {
		err = io.ErrShortWrite
	}
	if err != nil {
		writer.stage.Abort(err)
		writer.fail(err)
	}
	return n, err
}

func (writer *stageWriter) Close() error {
	if err := writer.stage.End(); err != nil {
		writer.fail(err)
		return err
	}
	if closer, ok := writer.downstream.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (writer *stageWriter) fail(err error) {
	if closer, ok := writer.downstream.(closerWithError); ok {
		_ = closer.CloseWithError(err)
	}
}
