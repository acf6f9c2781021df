package client

import (
	"errors"
	"fmt"
)

// ErrNoModelSelected is returned by Prompt/Generate when neither the call nor the
// client supplies a model. No network I/O is performed in that case.
var ErrNoModelSelected = errors.New("no model selected")

// ConnectionError signals that a connection to the server could not be opened.
type ConnectionError struct {
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect %s: %v", e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// TransportError signals a write or read failure after the connection was opened.
type TransportError struct {
	Op  string // "write" or "read"
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError signals a response that violates HTTP framing or the expected JSON shape.
// Body holds the offending payload (the whole raw response when framing failed).
type ProtocolError struct {
	Msg        string
	StatusCode int
	Body       []byte
	Err        error
}

func (e *ProtocolError) Error() string {
	msg := e.Msg
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// EmptyResponseError signals a well-formed exchange that carried no generated text.
type EmptyResponseError struct {
	Body []byte
	// ServerError is the "error" field the server sent alongside, if any.
	ServerError string
}

func (e *EmptyResponseError) Error() string {
	msg := fmt.Sprintf("no 'response' field in response: %s", e.Body)
	if e.ServerError != "" {
		msg += " (server error: " + e.ServerError + ")"
	}
	return msg
}

// IsConnectionError reports whether err indicates the server could not be reached.
func IsConnectionError(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}

// IsTransportError reports whether err is a mid-exchange write/read failure.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsProtocolError reports whether err indicates a malformed server response.
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}

// IsEmptyResponse reports whether err indicates a response without generated text.
func IsEmptyResponse(err error) bool {
	var ee *EmptyResponseError
	return errors.As(err, &ee)
}

// IsNoModelSelected reports whether err is ErrNoModelSelected.
func IsNoModelSelected(err error) bool { return errors.Is(err, ErrNoModelSelected) }
