package workflow

import (
	"errors"
	"fmt"
)

// ErrorKind tells whether a step failure may succeed on retry.
type ErrorKind int

const (
	// Transient failures are retried. Timeouts and unclassified errors are transient.
	Transient ErrorKind = iota
	// Permanent failures end the execution immediately.
	Permanent
)

func (k ErrorKind) String() string {
	if k == Permanent {
		return "permanent"
	}
	return "transient"
}

var (
	ErrEnrich      = errors.New("enrich failed")
	ErrStore       = errors.New("store failed")
	ErrStepTimeout = errors.New("step timed out")
)

// StepError is the terminal error of a failed step.
type StepError struct {
	Step     Step
	Kind     ErrorKind
	Attempts int
	Err      error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s step failed (%s) after %d attempt(s): %v", e.Step, e.Kind, e.Attempts, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Is matches ErrEnrich and ErrStore by step.
func (e *StepError) Is(target error) bool {
	switch target {
	case ErrEnrich:
		return e.Step == StepEnrich
	case ErrStore:
		return e.Step == StepStore
	}
	return false
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// MarkPermanent marks err as not worth retrying. Enrichers and storers use it
// for failures caused by the data itself.
func MarkPermanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with MarkPermanent.
func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}

// PanicError is a recovered panic inside a step. It is always permanent.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}
