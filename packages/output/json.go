package output

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/abdul-hamid-achik/glint/packages/core/collection"
	glinthttp "github.com/abdul-hamid-achik/glint/packages/http"
)

// JSONRecord is one rendered request.
type JSONRecord struct {
	Name       string          `json:"name"`
	Method     string          `json:"method,omitempty"`
	URL        string          `json:"url,omitempty"`
	StatusCode int             `json:"statusCode,omitempty"`
	Status     string          `json:"status,omitempty"`
	Duration   float64         `json:"duration"`
	Headers    http.Header     `json:"headers,omitempty"`
	Body       json.RawMessage `json:"body,omitempty"`
	Time       string          `json:"time"`
}

// JSONFormatter writes one JSON object per rendered request.
type JSONFormatter struct {
	writer io.Writer
	opts   Options
	now    func() time.Time
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer: os.Stdout,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func JSONWithOptions(o Options) JSONOption {
	return func(f *JSONFormatter) {
		f.opts = o
	}
}

func (f *JSONFormatter) Render(req *collection.Request, resp *glinthttp.Response) error {
	headers, body, err := f.opts.masked(req, resp.Headers, resp.Body)
	if err != nil {
		return err
	}

	record := JSONRecord{
		Name:     req.Name,
		Duration: float64(resp.DurationMs()),
		Time:     f.now().UTC().Format(time.RFC3339),
	}
	if resp.Request != nil {
		record.Method = resp.Request.Method
		record.URL = resp.Request.URL
	}
	if !f.opts.HideStatus {
		record.StatusCode = resp.StatusCode
		record.Status = resp.Status
	}
	if f.opts.ShowHeaders {
		record.Headers = headers
	}
	if !f.opts.HideBody && len(body) > 0 {
		if compact, ok := compactJSON(body); ok {
			record.Body = compact
		} else {
			text, err := marshalString(string(body))
			if err != nil {
				return err
			}
			record.Body = text
		}
	}

	enc := json.NewEncoder(f.writer)
	enc.SetEscapeHTML(false)
	return enc.Encode(record)
}

func marshalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
