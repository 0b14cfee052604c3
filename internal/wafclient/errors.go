package wafclient

import (
	"errors"
	"fmt"
)

// ErrMissingResults indicates a batch response without the results field.
// Callers surface this as "no results" rather than a crash.
var ErrMissingResults = errors.New("batch response missing results field")

// RequestError wraps a transport failure or a non-2xx response. The client
// never retries; retry policy belongs to the caller.
type RequestError struct {
	Op     string // e.g. "classify", "batch", "metrics"
	URL    string
	Status int // 0 when the request never got a response
	Err    error
}

func (e *RequestError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("wafclient: %s %s: unexpected status %d", e.Op, e.URL, e.Status)
	}
	return fmt.Sprintf("wafclient: %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// IsRequestError reports whether err is a transport/status failure from the
// client, for callers that branch on the error taxonomy.
func IsRequestError(err error) bool {
	var re *RequestError
	return errors.As(err, &re)
}
