package capture

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/abdul-hamid-achik/glint/packages/core/collection"
	"github.com/abdul-hamid-achik/glint/packages/http"
	"github.com/go-openapi/jsonpointer"
)

var (
	ErrRequestNotFound     = errors.New("no response recorded for request")
	ErrHeaderNotFound      = errors.New("header not found in response")
	ErrInvalidHeaderFormat = errors.New("header value is not valid UTF-8")
	ErrInvalidPath         = errors.New("JSON pointer does not resolve")
)

// History stores the last response of each executed request.
type History struct {
	entries map[string]*http.Response
}

func NewHistory() *History {
	return &History{entries: make(map[string]*http.Response)}
}

// Save records resp under name and returns the entry it replaced, if any.
func (h *History) Save(name string, resp *http.Response) *http.Response {
	prior := h.entries[name]
	h.entries[name] = resp
	return prior
}

func (h *History) Get(name string) (*http.Response, bool) {
	resp, ok := h.entries[name]
	return resp, ok
}

func (h *History) Len() int {
	return len(h.entries)
}

// Resolve extracts the value target selects from the response of name.
func (h *History) Resolve(name string, target collection.Target) (string, error) {
	resp, ok := h.entries[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrRequestNotFound, name)
	}

	switch t := target.(type) {
	case collection.HeaderValue:
		return headerValue(resp, t.Key)
	case collection.JSONBody:
		return bodyValue(resp, t.Pointer)
	default:
		return "", fmt.Errorf("unsupported target %T", target)
	}
}

func headerValue(resp *http.Response, key string) (string, error) {
	values := resp.Headers.Values(key)
	if len(values) == 0 {
		return "", fmt.Errorf("%w: %s", ErrHeaderNotFound, key)
	}
	if !utf8.ValidString(values[0]) {
		return "", fmt.Errorf("%w: %s", ErrInvalidHeaderFormat, key)
	}
	return values[0], nil
}

func bodyValue(resp *http.Response, pointer string) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(resp.Body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return "", fmt.Errorf("%w: %s: body is not JSON", ErrInvalidPath, pointer)
	}

	ptr, err := jsonpointer.New(pointer)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidPath, pointer, err)
	}

	value, _, err := ptr.Get(doc)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, pointer)
	}

	return stringify(value)
}

// stringify renders strings as-is, null as empty and everything else as
// compact JSON.
func stringify(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
