package service

import (
	"errors"
	"fmt"
)

// RejectCode classifies why an operation was refused.
type RejectCode string

const (
	CodeForbidden    RejectCode = "forbidden"
	CodeInvalidState RejectCode = "invalid_state"
	CodeNotFound     RejectCode = "not_found"
)

// Rejection is a structured refusal returned to the caller. It is never a
// crash: handlers translate it into a status code and body.
type Rejection struct {
	Code    RejectCode
	Message string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s: %s", r.Code, r.Message)
}

func forbidden(format string, args ...interface{}) error {
	return &Rejection{Code: CodeForbidden, Message: fmt.Sprintf(format, args...)}
}

func invalidState(format string, args ...interface{}) error {
	return &Rejection{Code: CodeInvalidState, Message: fmt.Sprintf(format, args...)}
}

func notFound(format string, args ...interface{}) error {
	return &Rejection{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// AsRejection unwraps a Rejection from err, if there is one.
func AsRejection(err error) (*Rejection, bool) {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}

// ErrDependency marks a failure of the store or an external collaborator;
// the caller may retry.
var ErrDependency = errors.New("dependency unavailable")

func dependency(err error) error {
	return fmt.Errorf("%w: %w", ErrDependency, err)
}
