package collection

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/abdul-hamid-achik/glint/packages/masking"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format is the serialization of a collection document.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatFor picks the document format from a file extension. YAML also
// covers .json files; everything else is TOML.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return FormatYAML
	default:
		return FormatTOML
	}
}

type document struct {
	Requests []requestRecord `toml:"requests" yaml:"requests"`
}

type requestRecord struct {
	Name         string                      `toml:"name" yaml:"name"`
	Method       string                      `toml:"method" yaml:"method"`
	URL          string                      `toml:"url" yaml:"url"`
	Headers      map[string]string           `toml:"headers,omitempty" yaml:"headers,omitempty"`
	Body         *bodyRecord                 `toml:"body,omitempty" yaml:"body,omitempty"`
	Dependencies map[string]dependencyRecord `toml:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	MaskingRules []masking.Rule              `toml:"masking_rules,omitempty" yaml:"masking_rules,omitempty"`
}

type bodyRecord struct {
	Type    string `toml:"type" yaml:"type"`
	Content any    `toml:"content,omitempty" yaml:"content,omitempty"`
}

type dependencyRecord struct {
	Source     string        `toml:"source" yaml:"source"`
	Name       string        `toml:"name,omitempty" yaml:"name,omitempty"`
	Prompt     string        `toml:"prompt,omitempty" yaml:"prompt,omitempty"`
	EnvFile    string        `toml:"env_file,omitempty" yaml:"env_file,omitempty"`
	Key        string        `toml:"key,omitempty" yaml:"key,omitempty"`
	Vault      string        `toml:"vault,omitempty" yaml:"vault,omitempty"`
	Item       string        `toml:"item,omitempty" yaml:"item,omitempty"`
	Field      string        `toml:"field,omitempty" yaml:"field,omitempty"`
	Path       string        `toml:"path,omitempty" yaml:"path,omitempty"`
	Label      string        `toml:"label,omitempty" yaml:"label,omitempty"`
	Request    string        `toml:"request,omitempty" yaml:"request,omitempty"`
	Target     *targetRecord `toml:"target,omitempty" yaml:"target,omitempty"`
	Expression string        `toml:"expression,omitempty" yaml:"expression,omitempty"`
}

type targetRecord struct {
	Type    string `toml:"type" yaml:"type"`
	Key     string `toml:"key,omitempty" yaml:"key,omitempty"`
	Pointer string `toml:"pointer,omitempty" yaml:"pointer,omitempty"`
}

// LoadFile reads and parses a collection document. Relative env_file and
// file paths are resolved against the document's directory.
func LoadFile(path string) (*Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading collection: %w", err)
	}

	c, err := Parse(data, FormatFor(path))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	c.Path = path
	c.resolvePaths(filepath.Dir(path))
	return c, nil
}

// Parse decodes a collection document.
func Parse(data []byte, format Format) (*Collection, error) {
	var doc document
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	default:
		dec := toml.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&doc); err != nil {
			return nil, err
		}
	}

	c := &Collection{}
	seen := make(map[string]bool, len(doc.Requests))
	for i, rec := range doc.Requests {
		req, err := rec.toRequest()
		if err != nil {
			if rec.Name != "" {
				return nil, fmt.Errorf("request %q: %w", rec.Name, err)
			}
			return nil, fmt.Errorf("request #%d: %w", i+1, err)
		}
		if seen[req.Name] {
			return nil, fmt.Errorf("duplicate request name %q", req.Name)
		}
		seen[req.Name] = true
		c.Requests = append(c.Requests, req)
	}
	return c, nil
}

func (c *Collection) resolvePaths(baseDir string) {
	if baseDir == "" || baseDir == "." {
		return
	}
	join := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(baseDir, p)
	}
	for _, req := range c.Requests {
		for name, dep := range req.Dependencies {
			switch d := dep.(type) {
			case EnvFile:
				d.Path = join(d.Path)
				req.Dependencies[name] = d
			case File:
				d.Path = join(d.Path)
				req.Dependencies[name] = d
			}
		}
	}
}

func (rec requestRecord) toRequest() (*Request, error) {
	if strings.TrimSpace(rec.Name) == "" {
		return nil, fmt.Errorf("name is required")
	}
	if strings.TrimSpace(rec.Method) == "" {
		return nil, fmt.Errorf("method is required")
	}

	req := &Request{
		Name:         rec.Name,
		Method:       rec.Method,
		URL:          rec.URL,
		Headers:      rec.Headers,
		MaskingRules: rec.MaskingRules,
	}

	if rec.Body != nil {
		body, err := rec.Body.toBody()
		if err != nil {
			return nil, fmt.Errorf("body: %w", err)
		}
		req.Body = body
	}

	if len(rec.Dependencies) > 0 {
		req.Dependencies = make(map[string]Dependency, len(rec.Dependencies))
		for name, depRec := range rec.Dependencies {
			dep, err := depRec.toDependency()
			if err != nil {
				return nil, fmt.Errorf("dependency %q: %w", name, err)
			}
			req.Dependencies[name] = dep
		}
	}

	return req, nil
}

func (rec *bodyRecord) toBody() (*Body, error) {
	switch BodyKind(strings.ToLower(rec.Type)) {
	case BodyText:
		text, ok := rec.Content.(string)
		if !ok {
			return nil, fmt.Errorf("text body content must be a string")
		}
		return &Body{Kind: BodyText, Text: text}, nil
	case BodyJSON:
		if text, ok := rec.Content.(string); ok {
			v, err := decodeJSONText(text)
			if err != nil {
				return nil, fmt.Errorf("json body content: %w", err)
			}
			return &Body{Kind: BodyJSON, JSON: v}, nil
		}
		return &Body{Kind: BodyJSON, JSON: normalizeValue(rec.Content)}, nil
	case BodyForm:
		fields, ok := normalizeValue(rec.Content).(map[string]any)
		if !ok && rec.Content != nil {
			return nil, fmt.Errorf("form body content must be a table of fields")
		}
		form := make(map[string]string, len(fields))
		for k, v := range fields {
			if s, ok := v.(string); ok {
				form[k] = s
			} else {
				form[k] = fmt.Sprint(v)
			}
		}
		return &Body{Kind: BodyForm, Form: form}, nil
	default:
		return nil, fmt.Errorf("unknown body type %q (want text, json or form)", rec.Type)
	}
}

// decodeJSONText parses JSON given as a string in the document. Numbers keep
// their integer form.
func decodeJSONText(text string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("unexpected data after JSON value")
	}
	return normalizeValue(v), nil
}

// normalizeValue converts decoder-specific containers into the shapes
// encoding/json produces, so JSON bodies marshal the same from TOML and YAML.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalizeValue(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = normalizeValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeValue(item)
		}
		return out
	case []map[string]any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeValue(item)
		}
		return out
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return n
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	default:
		return val
	}
}

func (rec dependencyRecord) toDependency() (Dependency, error) {
	require := func(fields map[string]string) error {
		for name, value := range fields {
			if strings.TrimSpace(value) == "" {
				return fmt.Errorf("%s source requires %q", rec.Source, name)
			}
		}
		return nil
	}

	source := strings.ToLower(strings.ReplaceAll(rec.Source, "-", "_"))
	switch source {
	case "env_var", "envvar":
		if err := require(map[string]string{"name": rec.Name}); err != nil {
			return nil, err
		}
		return EnvVar{Name: rec.Name, Prompt: rec.Prompt}, nil
	case "env_file", "envfile":
		if err := require(map[string]string{"env_file": rec.EnvFile, "key": rec.Key}); err != nil {
			return nil, err
		}
		return EnvFile{Path: rec.EnvFile, Key: rec.Key, Prompt: rec.Prompt}, nil
	case "secret_store", "one_password", "onepassword":
		if err := require(map[string]string{"vault": rec.Vault, "item": rec.Item, "field": rec.Field}); err != nil {
			return nil, err
		}
		return SecretStore{Vault: rec.Vault, Item: rec.Item, Field: rec.Field}, nil
	case "file":
		if err := require(map[string]string{"path": rec.Path}); err != nil {
			return nil, err
		}
		return File{Path: rec.Path}, nil
	case "prompt":
		if err := require(map[string]string{"label": rec.Label}); err != nil {
			return nil, err
		}
		return Prompt{Label: rec.Label}, nil
	case "response":
		if err := require(map[string]string{"request": rec.Request}); err != nil {
			return nil, err
		}
		target, err := rec.Target.toTarget()
		if err != nil {
			return nil, err
		}
		return Response{Request: rec.Request, Target: target}, nil
	case "generated":
		if err := require(map[string]string{"expression": rec.Expression}); err != nil {
			return nil, err
		}
		return Generated{Expression: rec.Expression}, nil
	case "":
		return nil, fmt.Errorf("source is required")
	default:
		return nil, fmt.Errorf("unknown source %q", rec.Source)
	}
}

func (rec *targetRecord) toTarget() (Target, error) {
	if rec == nil {
		return nil, fmt.Errorf("response source requires a target")
	}
	switch strings.ToLower(rec.Type) {
	case "header_value", "headervalue", "header":
		if rec.Key == "" {
			return nil, fmt.Errorf("header_value target requires \"key\"")
		}
		return HeaderValue{Key: rec.Key}, nil
	case "json_body", "jsonbody", "body":
		return JSONBody{Pointer: rec.Pointer}, nil
	default:
		return nil, fmt.Errorf("unknown target type %q (want header_value or json_body)", rec.Type)
	}
}
