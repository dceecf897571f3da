package collection

import (
	"bytes"
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Encode serializes the collection in the given format. Encoding and then
// parsing yields an equivalent collection.
func Encode(c *Collection, format Format) ([]byte, error) {
	doc := document{Requests: make([]requestRecord, 0, len(c.Requests))}
	for _, req := range c.Requests {
		doc.Requests = append(doc.Requests, recordFor(req))
	}

	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		var buf bytes.Buffer
		enc := toml.NewEncoder(&buf)
		enc.SetIndentTables(true)
		if err := enc.Encode(doc); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
}

func recordFor(req *Request) requestRecord {
	rec := requestRecord{
		Name:         req.Name,
		Method:       req.Method,
		URL:          req.URL,
		Headers:      req.Headers,
		MaskingRules: req.MaskingRules,
	}

	if req.Body != nil {
		body := &bodyRecord{Type: string(req.Body.Kind)}
		switch req.Body.Kind {
		case BodyText:
			body.Content = req.Body.Text
		case BodyJSON:
			body.Content = req.Body.JSON
		case BodyForm:
			body.Content = req.Body.Form
		}
		rec.Body = body
	}

	if len(req.Dependencies) > 0 {
		rec.Dependencies = make(map[string]dependencyRecord, len(req.Dependencies))
		for name, dep := range req.Dependencies {
			rec.Dependencies[name] = dependencyRecordFor(dep)
		}
	}
	return rec
}

func dependencyRecordFor(dep Dependency) dependencyRecord {
	switch d := dep.(type) {
	case EnvVar:
		return dependencyRecord{Source: "env_var", Name: d.Name, Prompt: d.Prompt}
	case EnvFile:
		return dependencyRecord{Source: "env_file", EnvFile: d.Path, Key: d.Key, Prompt: d.Prompt}
	case SecretStore:
		return dependencyRecord{Source: "secret_store", Vault: d.Vault, Item: d.Item, Field: d.Field}
	case File:
		return dependencyRecord{Source: "file", Path: d.Path}
	case Prompt:
		return dependencyRecord{Source: "prompt", Label: d.Label}
	case Response:
		return dependencyRecord{Source: "response", Request: d.Request, Target: targetRecordFor(d.Target)}
	case Generated:
		return dependencyRecord{Source: "generated", Expression: d.Expression}
	default:
		panic(fmt.Sprintf("collection: unhandled dependency %T", dep))
	}
}

func targetRecordFor(t Target) *targetRecord {
	switch tt := t.(type) {
	case HeaderValue:
		return &targetRecord{Type: "header_value", Key: tt.Key}
	case JSONBody:
		return &targetRecord{Type: "json_body", Pointer: tt.Pointer}
	default:
		panic(fmt.Sprintf("collection: unhandled target %T", t))
	}
}
