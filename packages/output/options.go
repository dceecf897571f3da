package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/abdul-hamid-achik/glint/packages/core/collection"
	"github.com/abdul-hamid-achik/glint/packages/masking"
)

// Options selects which parts of a response are shown.
type Options struct {
	ShowHeaders    bool
	HideStatus     bool
	HideBody       bool
	Raw            bool
	DisableMasking bool
}

// masked returns display copies of the response headers and body.
func (o Options) masked(req *collection.Request, headers http.Header, body []byte) (http.Header, []byte, error) {
	if o.DisableMasking || len(req.MaskingRules) == 0 {
		return headers, body, nil
	}

	maskedHeaders, err := masking.Headers(headers, req.MaskingRules)
	if err != nil {
		return nil, nil, fmt.Errorf("masking headers of %s: %w", req.Name, err)
	}
	maskedBody, err := masking.JSON(body, req.MaskingRules)
	if err != nil {
		return nil, nil, fmt.Errorf("masking body of %s: %w", req.Name, err)
	}
	return maskedHeaders, maskedBody, nil
}

func compactJSON(body []byte) ([]byte, bool) {
	if !json.Valid(body) {
		return nil, false
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, body); err != nil {
		return nil, false
	}
	return buf.Bytes(), true
}

func indentJSON(body []byte) ([]byte, bool) {
	if !json.Valid(body) {
		return nil, false
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err != nil {
		return nil, false
	}
	return buf.Bytes(), true
}
