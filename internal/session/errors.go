package session

import "fmt"

// #region errors

// ValidationError rejects bad or missing user input before any model call.
// The run's state is unchanged; the UI redisplays the form.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid input: %s", e.Reason)
}

// PreconditionError means an operation was invoked in the wrong state or
// with an out-of-range index. A programming error in the caller: fatal to
// the request, never to the process.
type PreconditionError struct {
	Op     string
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// PersistenceError wraps a VersionStore failure. It is logged and swallowed
// at the call site: the run stays usable in memory.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// #endregion errors
