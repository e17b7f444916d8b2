package errs

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/withstack"
)

// PublicError is an error whose message is safe to return to API callers.
type PublicError struct {
	err     error
	message string
	status  int
}

func (p PublicError) Error() string {
	return p.err.Error()
}

func (p PublicError) Message() string {
	return p.message
}

// Status is the HTTP status of the error, 400 unless set otherwise.
func (p PublicError) Status() int {
	if p.status == 0 {
		return http.StatusBadRequest
	}
	return p.status
}

func (p PublicError) Unwrap() error {
	return p.err
}

func NewPublicError(message string) error {
	return withstack.WithStackDepth(&PublicError{err: errors.New(message), message: message}, 1)
}

// NewPublicNotFound is a public error rendered as 404. It matches [NotFound].
func NewPublicNotFound(message string) error {
	err := errors.Join(errors.New(message), NotFound)
	return withstack.WithStackDepth(&PublicError{err: err, message: message, status: http.StatusNotFound}, 1)
}

// WithPublicMessage exposes err to API callers, prefixed when prefix is set.
func WithPublicMessage(err error, prefix string) error {
	if err == nil {
		return nil
	}
	message := err.Error()
	if prefix != "" {
		message = fmt.Sprintf("%s: %s", prefix, message)
	}
	return withstack.WithStackDepth(&PublicError{err: err, message: message}, 1)
}
