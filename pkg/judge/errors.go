package judge

import (
	"errors"
	"fmt"
)

// Kind classifies gateway failures.
type Kind string

const (
	// KindTransient covers network failures and retryable HTTP statuses.
	KindTransient Kind = "transient"
	// KindProtocol covers malformed, empty or mis-shaped judge responses.
	KindProtocol Kind = "protocol"
	// KindTimeout is returned when polling outlives its deadline.
	KindTimeout Kind = "timeout"
)

var (
	// ErrGateway matches every transient or protocol failure talking to the judge.
	ErrGateway = errors.New("judge gateway error")
	// ErrTransient matches network level failures only.
	ErrTransient = errors.New("judge unreachable")
	// ErrProtocol matches responses that violate the judge wire contract.
	ErrProtocol = errors.New("judge protocol error")
	// ErrTimeout matches an expired poll deadline.
	ErrTimeout = errors.New("judge poll deadline exceeded")
)

// Error describes a failed gateway operation.
type Error struct {
	Kind       Kind
	Op         string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("judge %s: %s", e.Op, e.Kind)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (http %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets callers match on the package sentinels with errors.Is.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrGateway:
		return e.Kind == KindTransient || e.Kind == KindProtocol
	case ErrTransient:
		return e.Kind == KindTransient
	case ErrProtocol:
		return e.Kind == KindProtocol
	case ErrTimeout:
		return e.Kind == KindTimeout
	}
	return false
}

func transientError(op string, status int, err error) *Error {
	return &Error{Kind: KindTransient, Op: op, StatusCode: status, Err: err}
}

func protocolError(op string, format string, args ...interface{}) *Error {
	return &Error{Kind: KindProtocol, Op: op, Err: fmt.Errorf(format, args...)}
}

// IsTransient reports whether err is a retryable network failure.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}
