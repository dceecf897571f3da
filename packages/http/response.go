package http

import (
	"net/http"
	"time"
)

// Response is the outcome of performing one request. Responses are stored
// in the run history unmasked; masking happens only when they are rendered.
type Response struct {
	Request    *Request
	StatusCode int
	Status     string
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// StatusClass is the first digit of a status code.
type StatusClass int

const (
	ClassUnknown StatusClass = iota
	ClassInformational
	ClassSuccess
	ClassRedirect
	ClassClientError
	ClassServerError
)

func (r *Response) Class() StatusClass {
	if r.StatusCode < 100 || r.StatusCode > 599 {
		return ClassUnknown
	}
	return StatusClass(r.StatusCode / 100)
}

func (r *Response) BodyString() string {
	return string(r.Body)
}

// Header returns the first value of a header, ignoring case.
func (r *Response) Header(key string) string {
	return r.Headers.Get(key)
}

func (r *Response) DurationMs() int64 {
	return r.Duration.Milliseconds()
}
