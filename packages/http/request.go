package http

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/http/httpguts"
)

var (
	ErrInvalidMethod      = errors.New("invalid HTTP method")
	ErrInvalidURL         = errors.New("invalid URL")
	ErrInvalidHeaderName  = errors.New("invalid header name")
	ErrInvalidHeaderValue = errors.New("invalid header value")
)

const (
	ContentTypeJSON = "application/json"
	ContentTypeForm = "application/x-www-form-urlencoded"
)

// Request is a fully resolved request ready to be sent.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

func NewRequest(method, requestURL string) *Request {
	return &Request{
		Method:  method,
		URL:     requestURL,
		Headers: make(map[string]string),
	}
}

func (r *Request) SetHeader(key, value string) *Request {
	r.Headers[key] = value
	return r
}

// HasHeader reports whether a header is set, ignoring case.
func (r *Request) HasHeader(key string) bool {
	for k := range r.Headers {
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}

func (r *Request) SetBody(body string) *Request {
	r.Body = []byte(body)
	return r
}

// SetJSONBody sets an already encoded JSON body and a JSON content type
// unless one was declared.
func (r *Request) SetJSONBody(body string) *Request {
	r.Body = []byte(body)
	if !r.HasHeader("Content-Type") {
		r.SetHeader("Content-Type", ContentTypeJSON)
	}
	return r
}

// SetFormBody URL-encodes fields as the body.
func (r *Request) SetFormBody(fields map[string]string) *Request {
	values := url.Values{}
	for k, v := range fields {
		values.Set(k, v)
	}
	r.Body = []byte(values.Encode())
	if !r.HasHeader("Content-Type") {
		r.SetHeader("Content-Type", ContentTypeForm)
	}
	return r
}

// Validate checks the method, URL and headers.
func (r *Request) Validate() error {
	if r.Method == "" || !httpguts.ValidHeaderFieldName(r.Method) {
		return fmt.Errorf("%w: %q", ErrInvalidMethod, r.Method)
	}
	if err := ValidateURL(r.URL); err != nil {
		return err
	}
	for k, v := range r.Headers {
		if !httpguts.ValidHeaderFieldName(k) {
			return fmt.Errorf("%w: %q", ErrInvalidHeaderName, k)
		}
		if !httpguts.ValidHeaderFieldValue(v) {
			return fmt.Errorf("%w for %s", ErrInvalidHeaderValue, k)
		}
	}
	return nil
}

// ValidateURL checks that a URL is well-formed and uses an allowed scheme
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q (only http and https are allowed)", ErrInvalidURL, u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("%w: URL must have a host", ErrInvalidURL)
	}

	return nil
}
