package gateway

import (
	"errors"
	"fmt"
)

// ErrNotConfigured means no backend base address is set. No call is
// attempted; the front end must present the setup prompt instead of a
// transient notification.
var ErrNotConfigured = errors.New("backend address not configured")

// ErrUnauthenticated is the distinguished "no session" outcome for an
// HTTP 401. It is a normal signal, never shown to the user as an error.
var ErrUnauthenticated = errors.New("not authenticated")

// APIError is a structured application error: the gateway answered with a
// non-2xx status and a recognizable error body. It reaches callers as a
// value so they can show the server's own message.
type APIError struct {
	HTTPStatus int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("gateway error (HTTP %d)", e.HTTPStatus)
}

// AsAPIError unwraps err into an APIError when one is present.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
