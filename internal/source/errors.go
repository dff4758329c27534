package source

import "fmt"

// APIError is a non-2xx response from the workspace API. The status code
// drives error classification; Code and Message carry whatever the server
// reported.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("workspace API %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("workspace API %d: %s", e.StatusCode, e.Message)
}
