package capclient

import "errors"

var (
	// ErrServiceUnavailable covers 5xx responses, timeouts and refused connections.
	ErrServiceUnavailable = errors.New("capability server unavailable")

	ErrUnexpectedResponse = errors.New("unexpected response")
)
