package portalapi

import "fmt"

// APIError is a non-2xx response from the portal API. Detail carries the
// server's reason when one was provided, otherwise a generic fallback for
// the operation.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return e.Detail
}

// String includes the status code, for logs.
func (e *APIError) String() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Detail)
}
