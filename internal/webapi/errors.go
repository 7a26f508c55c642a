package webapi

import (
	"errors"
	"fmt"
	"net/http"
)

// FetchError reports a failed outbound call: either the transport failed (Err
// is set) or the endpoint answered with a non-2xx status.
type FetchError struct {
	Source     string
	URL        string
	StatusCode int
	Body       string
	Err        error
}

func (e *FetchError) Error() string {
	if e == nil {
		return "fetch failed"
	}
	if e.Err != nil {
		return fmt.Sprintf("could not fetch the data from %s (%s): %v", e.Source, e.URL, e.Err)
	}
	return fmt.Sprintf("could not fetch the data from %s (%s): status %d body %q", e.Source, e.URL, e.StatusCode, e.Body)
}

func (e *FetchError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func IsNotFound(err error) bool {
	fetchErr, ok := errors.AsType[*FetchError](err)
	return ok && fetchErr.StatusCode == http.StatusNotFound
}
