package codegen

import (
	"errors"
	"fmt"
)

// ErrUnsupportedExpression is raised at compile time for an IR variant
// outside the supported set, or an unsupported type combination (e.g. Rem
// on non-integers).
var ErrUnsupportedExpression = errors.New("unsupported expression")

// ErrTypeMismatch is raised at compile time when a binary operator's
// children disagree in primitive type after any casts.
var ErrTypeMismatch = errors.New("type mismatch")

// ErrIndexOutOfRange is the panic value raised when a bound reference's
// ordinal lies beyond the batch's column count. It is a bug, never expected
// against a well-formed batch - callers should treat it as fatal rather
// than recoverable.
var ErrIndexOutOfRange = errors.New("index out of range")

// ErrDivideByZero is returned by the Div/Rem runtime step on a zero
// divisor. It is platform-defined: the generator is not required to mask
// it via the selector+not-null path.
var ErrDivideByZero = errors.New("divide by zero")

// CompileFailureError wraps a compilation failure with the pseudo-source
// the generator produced up to the point of failure, for diagnosis.
type CompileFailureError struct {
	Source string
	Err    error
}

func (e *CompileFailureError) Error() string {
	return fmt.Sprintf("compile failure: %v\n--- generated source ---\n%s", e.Err, e.Source)
}

func (e *CompileFailureError) Unwrap() error {
	return e.Err
}
