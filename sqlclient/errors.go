package sqlclient

import "errors"

// Error is the only error kind returned by the client. Message carries the
// text of the underlying failure unchanged.
type Error struct {
	Message string
	err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.err
}

// newError flattens err into an *Error.
func newError(err error) error {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr
	}
	return &Error{Message: err.Error(), err: err}
}
