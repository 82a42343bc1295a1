package catalog

import (
	"errors"
	"fmt"
)

// ErrNotLoaded is returned by read paths that need a catalog before the
// first successful refresh.
var ErrNotLoaded = errors.New("catalog not loaded")

// TransportError reports a failed fetch: either the request itself failed
// (Err is set) or the server answered with a non-200 status.
type TransportError struct {
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch catalog: %v", e.Err)
	}
	return fmt.Sprintf("fetch catalog: unexpected status %d", e.Status)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
