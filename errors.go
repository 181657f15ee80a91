package params

import (
	"errors"
	"fmt"
)

var (
	// ErrReleased indicates use of a parameter after Release. Every operation
	// on a released parameter fails with it, proxies included.
	ErrReleased = errors.New("params: parameter released")
	// ErrScopeReleased indicates a second Release of the same scope.
	ErrScopeReleased = errors.New("params: scope already released")
	// ErrScopeOutOfOrder indicates a Release while a later scope on the same
	// stack is still active. Scopes exit strictly last-in first-out.
	ErrScopeOutOfOrder = errors.New("params: scope released out of order")
	// ErrScopeWrongContext indicates a Release from an execution context other
	// than the one that entered the scope.
	ErrScopeWrongContext = errors.New("params: scope released from another context")
	// ErrContextReleased indicates a Release after the owning execution
	// context was torn down.
	ErrContextReleased = errors.New("params: execution context released")
	// ErrDuplicateName indicates a catalog registration under a name that is
	// already taken.
	ErrDuplicateName = errors.New("params: name already registered")
	// ErrTooManyArgs indicates a Call with more than one argument.
	ErrTooManyArgs = errors.New("params: call accepts at most one argument")
)

// ValidationError captures converter metadata alongside the originating error.
type ValidationError struct {
	Param string
	Value any
	Err   error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("params: %s converter rejected %s: %v", describeParam(e.Param), describeValue(e.Value), e.Err)
}

func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ProtocolError reports scope discipline violations: releasing twice, out of
// order, or from the wrong execution context. It signals a programming fault
// in the caller, not a recoverable condition.
type ProtocolError struct {
	Param   string
	Context ContextID
	Err     error
}

func (e *ProtocolError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s context=%d: %v", describeParam(e.Param), e.Context, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeParam(name string) string {
	if name == "" {
		return "<anonymous>"
	}
	return name
}

func describeValue(value any) string {
	if value == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%v", value)
}

func newProtocolError(param string, ctx ContextID, err error) *ProtocolError {
	return &ProtocolError{
		Param:   param,
		Context: ctx,
		Err:     err,
	}
}

// wrapValidationError normalizes converter failures, filling in parameter
// metadata when the converter already produced a ValidationError.
func wrapValidationError(param string, value any, err error) error {
	if err == nil {
		return nil
	}

	var verr *ValidationError
	if errors.As(err, &verr) {
		if verr.Param == "" {
			verr.Param = param
		}
		if verr.Value == nil {
			verr.Value = value
		}
		return verr
	}

	return &ValidationError{
		Param: param,
		Value: value,
		Err:   err,
	}
}

func releasedError(param string) error {
	return fmt.Errorf("%s: %w", describeParam(param), ErrReleased)
}
