package consumer

import (
	"errors"
	"fmt"
)

// ConsumeErrorKind classifies a consumer session failure.
type ConsumeErrorKind int

const (
	// KindConnectionLost ends a session; the consumer reconnects and resumes
	// from the last stored offset.
	KindConnectionLost ConsumeErrorKind = iota + 1
)

func (k ConsumeErrorKind) String() string {
	if k == KindConnectionLost {
		return "connection_lost"
	}
	return "unknown"
}

var ErrConnectionLost = errors.New("kafka connection lost")

// ConsumeError is handled inside the consumer. It only escapes Run once
// reconnecting gives up.
type ConsumeError struct {
	Kind ConsumeErrorKind
	Err  error
}

func (e *ConsumeError) Error() string {
	return fmt.Sprintf("consume (%s): %v", e.Kind, e.Err)
}

func (e *ConsumeError) Unwrap() error {
	return e.Err
}

func (e *ConsumeError) Is(target error) bool {
	return target == ErrConnectionLost && e.Kind == KindConnectionLost
}

func connectionLost(err error) *ConsumeError {
	return &ConsumeError{Kind: KindConnectionLost, Err: err}
}
