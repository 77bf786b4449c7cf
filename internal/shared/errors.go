package shared

import (
	"errors"
	"fmt"
)

// RequestError is used when we want a specific error message and StatusCode.
// The router returns Err's message to the caller verbatim, so anything that
// should stay in the logs only must be joined next to the RequestError
// instead of wrapped inside it.
type RequestError struct {
	StatusCode int
	Err        error
}

func (r *RequestError) Error() string {
	return fmt.Sprintf("status %d: err %v", r.StatusCode, r.Err)
}

func (r *RequestError) Unwrap() error {
	return r.Err
}

// Message is the text shown to the caller.
func (r *RequestError) Message() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

func NewRequestError(status int, format string, args ...any) *RequestError {
	return &RequestError{StatusCode: status, Err: fmt.Errorf(format, args...)}
}

var (
	ErrMissingAuth   = &RequestError{Err: errors.New("missing authorization header"), StatusCode: 401}
	ErrInvalidFormat = &RequestError{Err: errors.New("invalid authentication format"), StatusCode: 401}

	ErrMethodNotAllowed = &RequestError{Err: errors.New("Method Not Allowed"), StatusCode: 405}
	ErrMissingParts     = &RequestError{Err: errors.New("parts[] is required. Example: [{ text: 'Hello' }]"), StatusCode: 400}

	ErrUpstreamTransport = &MetricsError{Msg: "failed to send http request to upstream", Code: "upstream_http_err"}
	ErrUpstreamStatus    = &MetricsError{Msg: "upstream responded with non-2xx", Code: "upstream_http_status_err"}
	ErrUpstreamExhausted = &MetricsError{Msg: "all candidate models rejected", Code: "upstream_exhausted"}
	ErrReadingResponse   = &MetricsError{Msg: "failed to read upstream response", Code: "upstream_response_err"}
)

type MetricsError struct {
	Msg  string
	Code string
}

func (m *MetricsError) Error() string {
	return m.String()
}

func (m *MetricsError) String() string {
	return m.Msg
}
