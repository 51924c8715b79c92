package relay

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/wal-g/tracelog"
)

// UpdateFailureError is returned when the accumulator rejects a chunk.
// The chunk is not forwarded and the stage is aborted.
type UpdateFailureError struct {
	error
}

func NewUpdateFailureError(err error) UpdateFailureError {
	return UpdateFailureError{errors.Wrap(err, "relay stage failed to update accumulator")}
}

func (err UpdateFailureError) Error() string {
	return fmt.Sprintf(tracelog.GetErrorFormatter(), err.error)
}

func (err UpdateFailureError) Unwrap() error {
	return err.error
}

// ProtocolViolationError signals a programming error in the caller:
// a call that is not valid in the current stage state, or reuse of a consumed handoff.
type ProtocolViolationError struct {
	error
}

func NewProtocolViolationError(format string, args ...interface{}) ProtocolViolationError {
	return ProtocolViolationError{errors.Errorf(format, args...)}
}

func (err ProtocolViolationError) Error() string {
	return fmt.Sprintf(tracelog.GetErrorFormatter(), err.error)
}

// HandlerFailureError wraps an error returned by a completion handler.
// The relay chain state is unknown after it.
type HandlerFailureError struct {
	error
}

func NewHandlerFailureError(err error) HandlerFailureError {
	return HandlerFailureError{errors.Wrap(err, "relay completion handler failed")}
}

func (err HandlerFailureError) Error() string {
	return fmt.Sprintf(tracelog.GetErrorFormatter(), err.error)
}

func (err HandlerFailureError) Unwrap() error {
	return err.error
}

// ErrAborted is the default cause of Abort.
var ErrAborted = errors.New("relay stage aborted")
