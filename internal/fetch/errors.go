package fetch

import "fmt"

// maxErrorBody caps how much of a response body a StatusError keeps.
const maxErrorBody = 2048

// FetchError is returned when every attempt failed with a retryable status
// or a transport error.
type FetchError struct {
	URL      string
	Attempts int
	Err      error // last failure
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: giving up after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// StatusError reports a non-success HTTP status.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: unexpected status %d: %s", e.URL, e.StatusCode, e.Body)
}
