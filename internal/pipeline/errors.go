package pipeline

import (
	"errors"
	"fmt"
)

// ErrSuperseded is returned by an operation whose result was discarded
// because a newer operation took over the run. It is not a failure and is
// never recorded in the run state.
var ErrSuperseded = errors.New("operation superseded")

// ValidationError is returned before any external call when an operation's
// preconditions do not hold. The run state is left untouched.
type ValidationError struct {
	Op      string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// StageError reports a failed stage. The chain halts; nothing is retried
// across stages.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
