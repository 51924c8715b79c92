package relay

import "io"

type stageReader struct {
	stage    *Stage
	upstream io.Reader
	err      error
}

var _ io.Reader = &stageReader{}

// NewReader exposes stage as a pass-through io.Reader over upstream.
// Its consumer observes io.EOF only after the completion handler returned.
func NewReader(stage *Stage, upstream io.Reader) io.Reader {
	return &stageReader{stage: stage, upstream: upstream}
}

func (reader *stageReader) Read(data []byte) (int, error) {
	if reader.err != nil {
		return 0, reader.err
	}
	n, err := reader.upstream.Read(data)
	if n > 0 {
		if _, processErr := reader.stage.Process(NewChunk(data[:n])); processErr != nil {
			reader.err = processErr
			return 0, processErr
		}
	}
	switch {
	case err == io.EOF:
		if endErr := reader.stage.End(); endErr != nil {
			reader.err = endErr
			return n, endErr
		}
		reader.err = io.EOF
	case err != nil:
		reader.stage.Abort(err)
		reader.err = err
	}
	return n, err
}
