package gateway

import (
	"errors"
	"fmt"
)

// ErrEmptyResponse is returned when the service reports success but returns
// no usable text.
var ErrEmptyResponse = errors.New("empty response from model")

// ErrNoImage is returned when an image request yields no inline image payload.
var ErrNoImage = errors.New("response contained no image")

// TransportError reports a call that kept failing until the retry budget ran out.
type TransportError struct {
	Model    string
	Attempts int
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: failed after %d attempt(s): %v", e.Model, e.Attempts, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// SchemaError reports model output that did not parse or did not match the
// declared schema. The call itself succeeded, so it is never retried.
type SchemaError struct {
	Model  string
	Schema string
	Err    error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: malformed %s output: %v", e.Model, e.Schema, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// IsTransport reports whether err is a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsSchema reports whether err is a SchemaError.
func IsSchema(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}
