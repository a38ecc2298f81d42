package admin

import (
	"errors"
	"fmt"
)

// ProvisionErrorKind classifies a provisioning failure.
type ProvisionErrorKind int

const (
	// KindUnknown is any failure that could not be classified.
	KindUnknown ProvisionErrorKind = iota
	// KindConfigConflict means the topic exists with a different partition count or replication factor.
	KindConfigConflict
	// KindBrokerUnreachable means no broker answered within the bootstrap retry budget.
	KindBrokerUnreachable
)

func (k ProvisionErrorKind) String() string {
	switch k {
	case KindConfigConflict:
		return "config_conflict"
	case KindBrokerUnreachable:
		return "broker_unreachable"
	default:
		return "unknown"
	}
}

var (
	ErrConfigConflict    = errors.New("topic exists with a conflicting spec")
	ErrBrokerUnreachable = errors.New("kafka brokers unreachable")
	ErrInvalidSpec       = errors.New("invalid topic spec")
)

// ProvisionError is returned by Provision and Deprovision.
type ProvisionError struct {
	Kind  ProvisionErrorKind
	Topic string
	Err   error
}

func (e *ProvisionError) Error() string {
	return fmt.Sprintf("provision topic %s (%s): %v", e.Topic, e.Kind, e.Err)
}

func (e *ProvisionError) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels so callers can use errors.Is(err, ErrConfigConflict).
func (e *ProvisionError) Is(target error) bool {
	switch target {
	case ErrConfigConflict:
		return e.Kind == KindConfigConflict
	case ErrBrokerUnreachable:
		return e.Kind == KindBrokerUnreachable
	}
	return false
}

func newProvisionError(kind ProvisionErrorKind, topic string, err error) *ProvisionError {
	return &ProvisionError{Kind: kind, Topic: topic, Err: err}
}
