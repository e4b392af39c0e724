package ragclient

import (
	"errors"
	"fmt"
)

// Sentinels matched by errors.Is for the two failure kinds.
var (
	ErrServerRejected  = errors.New("server rejected request")
	ErrTransportFailed = errors.New("transport failure")
)

// ServerRejectedError is returned when the service answers with a non-2xx status.
type ServerRejectedError struct {
	Op         string // "load", "query", "clear"
	StatusCode int
	Detail     string // FastAPI "detail" field, or the raw body when absent
}

func (e *ServerRejectedError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: server rejected request with status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: server rejected request with status %d: %s", e.Op, e.StatusCode, e.Detail)
}

func (e *ServerRejectedError) Is(target error) bool { return target == ErrServerRejected }

// TransportError is returned when no usable response arrived: dial and
// timeout failures, unreadable bodies, and bodies that are not the
// expected JSON.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport failure: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransportFailed }

// IsServerRejected reports whether err is (or wraps) a non-2xx answer.
func IsServerRejected(err error) bool {
	var target *ServerRejectedError
	return errors.As(err, &target)
}

// IsTransportFailed reports whether err is (or wraps) a transport failure.
func IsTransportFailed(err error) bool {
	var target *TransportError
	return errors.As(err, &target)
}
