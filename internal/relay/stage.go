package relay

import (
	"github.com/pkg/errors"
	"github.com/wal-g/tracelog"

	"github.com/wal-g/relaysum/internal/checksum"
)

type State int

const (
	Active State = iota
	Completed
	Aborted
)

func (state State) String() string {
	switch state {
	case Active:
		return "active"
	case Completed:
		return "completed"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Handler receives the accumulator once the stage has seen all of its input.
// It decides whether to finalize the handoff or pass it to the next stage.
type Handler func(handoff *Handoff) error

type Option func(*Stage)

// WithAlgorithm selects the primitive for a fresh accumulator.
// It is ignored when the stage is seeded by a handoff.
func WithAlgorithm(algorithm checksum.Algorithm) Option {
	return func(stage *Stage) {
		stage.algorithm = algorithm
	}
}

// WithName labels the stage in logs.
func WithName(name string) Option {
	return func(stage *Stage) {
		stage.name = name
	}
}

// Stage forwards chunks unchanged while folding them into an accumulator.
// It is not safe for concurrent use; the pipeline drives it from one goroutine.
type Stage struct {
	name       string
	algorithm  checksum.Algorithm
	calc       checksum.Calculator
	onComplete Handler
	state      State
	chunks     int64
	abortCause error
}

// NewStage builds a relay stage. When prior is nil a fresh accumulator is created,
// otherwise prior is consumed and the stage continues its digest.
func NewStage(prior *Handoff, onComplete Handler, opts ...Option) (*Stage, error) {
	if onComplete == nil {
		return nil, NewProtocolViolationError("relay stage requires a completion handler")
	}
	stage := &Stage{
		name:       "relay",
		algorithm:  checksum.DefaultAlgorithm,
		onComplete: onComplete,
	}
	for _, opt := range opts {
		opt(stage)
	}

	if prior != nil {
		calc, err := prior.take()
		if err != nil {
			return nil, err
		}
		stage.calc = calc
		stage.algorithm = calc.Algorithm()
	} else {
		calc, err := checksum.NewCalculator(stage.algorithm)
		if err != nil {
			return nil, err
		}
		stage.calc = calc
	}
	return stage, nil
}

func (stage *Stage) State() State {
	return stage.state
}

func (stage *Stage) Algorithm() checksum.Algorithm {
	return stage.algorithm
}

// Process folds chunk into the accumulator and returns it for forwarding.
// The chunk is never forwarded when the update fails.
func (stage *Stage) Process(chunk Chunk) (Chunk, error) {
	if stage.state != Active {
		return Chunk{}, NewProtocolViolationError("%s stage: process called in %s state", stage.name, stage.state)
	}
	raw, err := chunk.Bytes()
	if err == nil {
		err = stage.calc.Update(raw)
	}
	if err != nil {
		updateErr := NewUpdateFailureError(err)
		stage.Abort(updateErr)
		return Chunk{}, updateErr
	}
	stage.chunks++
	stageChunksTotal.Inc()
	stageBytesTotal.Add(float64(len(raw)))
	return chunk, nil
}

// End completes the stage: the accumulator is released into a Handoff and the
// handler runs to completion before End returns. Callers signal end-of-stream
// downstream only after End has returned.
func (stage *Stage) End() error {
	if stage.state != Active {
		return NewProtocolViolationError("%s stage: end called in %s state", stage.name, stage.state)
	}
	stage.state = Completed
	handoff := newHandoff(stage.calc)
	stage.calc = nil
	stagesCompletedTotal.Inc()

	tracelog.DebugLogger.Printf("%s stage completed: %d chunks, %d bytes seen by %s accumulator\n",
		stage.name, stage.chunks, handoff.Written(), stage.algorithm)

	if err := stage.onComplete(handoff); err != nil {
		handlerFailuresTotal.Inc()
		return NewHandlerFailureError(err)
	}
	return nil
}

// Abort moves an active stage to the terminal Aborted state. The handler is
// never invoked for an aborted stage. Aborting a finished stage is a no-op.
func (stage *Stage) Abort(cause error) {
	if stage.state != Active {
		return
	}
	if cause == nil {
		cause = ErrAborted
	}
	stage.state = Aborted
	stage.calc = nil
	stage.abortCause = cause
	stagesAbortedTotal.Inc()
	tracelog.DebugLogger.Printf("%s stage aborted after %d chunks: %v\n", stage.name, stage.chunks, cause)
}

// Err returns the cause of an abort.
func (stage *Stage) Err() error {
	return stage.abortCause
}

// IsProtocolViolation reports whether err was caused by misuse of a stage or handoff.
func IsProtocolViolation(err error) bool {
	var violation ProtocolViolationError
	return errors.As(err, &violation)
}
