package network

import (
	"errors"
	"fmt"
)

// ErrEmptyID indicates an update or delete was requested without a message ID.
var ErrEmptyID = errors.New("network: message id is required")

// FetchError reports a failed round trip to the message backend. It covers
// transport failures, non-2xx responses and undecodable list bodies.
type FetchError struct {
	Op         string
	Method     string
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("%s messages: %s %s", e.Op, e.Method, e.URL)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsFetchError reports whether err is, or wraps, a *FetchError.
func IsFetchError(err error) bool {
	var fetchErr *FetchError
	return errors.As(err, &fetchErr)
}

// StatusCode returns the HTTP status carried by a *FetchError in err, or 0.
func StatusCode(err error) int {
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.StatusCode
	}
	return 0
}
