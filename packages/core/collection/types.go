package collection

import (
	"fmt"
	"sort"

	"github.com/abdul-hamid-achik/glint/packages/masking"
)

// Collection is a loaded collection document.
type Collection struct {
	Path     string
	Requests []*Request
}

// Request is one declared request. It is read-only once loaded; use Clone
// before modifying a copy.
type Request struct {
	Name         string
	Method       string
	URL          string
	Headers      map[string]string
	Body         *Body
	Dependencies map[string]Dependency
	MaskingRules []masking.Rule
}

type BodyKind string

const (
	BodyText BodyKind = "text"
	BodyJSON BodyKind = "json"
	BodyForm BodyKind = "form"
)

// Body is the request payload. Only the field matching Kind is set.
type Body struct {
	Kind BodyKind
	Text string
	JSON any
	Form map[string]string
}

// Find returns the request with the given name.
func (c *Collection) Find(name string) (*Request, bool) {
	for _, req := range c.Requests {
		if req.Name == name {
			return req, true
		}
	}
	return nil, false
}

// Names returns request names in declared order.
func (c *Collection) Names() []string {
	names := make([]string, 0, len(c.Requests))
	for _, req := range c.Requests {
		names = append(names, req.Name)
	}
	return names
}

// HeaderNames returns the declared header name templates sorted so header
// resolution happens in a stable order.
func (r *Request) HeaderNames() []string {
	names := make([]string, 0, len(r.Headers))
	for name := range r.Headers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dependency returns the dependency declared for a placeholder.
func (r *Request) Dependency(placeholder string) (Dependency, bool) {
	dep, ok := r.Dependencies[placeholder]
	return dep, ok
}

func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	clone := &Request{
		Name:   r.Name,
		Method: r.Method,
		URL:    r.URL,
	}
	if r.Headers != nil {
		clone.Headers = make(map[string]string, len(r.Headers))
		for k, v := range r.Headers {
			clone.Headers[k] = v
		}
	}
	if r.Body != nil {
		clone.Body = r.Body.Clone()
	}
	if r.Dependencies != nil {
		clone.Dependencies = make(map[string]Dependency, len(r.Dependencies))
		for k, v := range r.Dependencies {
			clone.Dependencies[k] = v
		}
	}
	if len(r.MaskingRules) > 0 {
		clone.MaskingRules = append([]masking.Rule(nil), r.MaskingRules...)
	}
	return clone
}

func (b *Body) Clone() *Body {
	clone := &Body{Kind: b.Kind, Text: b.Text, JSON: copyValue(b.JSON)}
	if b.Form != nil {
		clone.Form = make(map[string]string, len(b.Form))
		for k, v := range b.Form {
			clone.Form[k] = v
		}
	}
	return clone
}

func copyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = copyValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = copyValue(item)
		}
		return out
	default:
		return val
	}
}

// Dependency describes how one placeholder is resolved. The set of
// implementations is closed: EnvVar, EnvFile, SecretStore, File, Prompt,
// Response and Generated.
type Dependency interface {
	isDependency()
	fmt.Stringer
}

// EnvVar reads a process environment variable, prompting when it is unset
// and Prompt is not empty.
type EnvVar struct {
	Name   string
	Prompt string
}

// EnvFile reads Key from a flat key/value document at Path. When the key is
// missing and Prompt is set, the answer is written back to the document.
type EnvFile struct {
	Path   string
	Key    string
	Prompt string
}

// SecretStore reads a field from the external secret manager.
type SecretStore struct {
	Vault string
	Item  string
	Field string
}

// File reads the trimmed contents of a file.
type File struct {
	Path string
}

// Prompt asks the user for a value.
type Prompt struct {
	Label string
}

// Response reads a value from the response of another request in the
// collection, executing that request first when needed.
type Response struct {
	Request string
	Target  Target
}

// Generated evaluates a builtin function expression such as uuid().
type Generated struct {
	Expression string
}

func (EnvVar) isDependency()      {}
func (EnvFile) isDependency()     {}
func (SecretStore) isDependency() {}
func (File) isDependency()        {}
func (Prompt) isDependency()      {}
func (Response) isDependency()    {}
func (Generated) isDependency()   {}

func (d EnvVar) String() string { return "env_var " + d.Name }

func (d EnvFile) String() string { return fmt.Sprintf("env_file %s[%s]", d.Path, d.Key) }

func (d SecretStore) String() string {
	return fmt.Sprintf("secret_store %s/%s/%s", d.Vault, d.Item, d.Field)
}

func (d File) String() string { return "file " + d.Path }

func (d Prompt) String() string { return "prompt " + d.Label }

func (d Response) String() string { return fmt.Sprintf("response %s %s", d.Request, d.Target) }

func (d Generated) String() string { return "generated " + d.Expression }

// Target selects the part of a stored response a Response dependency reads.
// Implementations: HeaderValue and JSONBody.
type Target interface {
	isTarget()
	fmt.Stringer
}

// HeaderValue reads a response header.
type HeaderValue struct {
	Key string
}

// JSONBody reads a value from the JSON body with an RFC 6901 pointer.
type JSONBody struct {
	Pointer string
}

func (HeaderValue) isTarget() {}
func (JSONBody) isTarget()    {}

func (t HeaderValue) String() string { return "header " + t.Key }

func (t JSONBody) String() string { return "body " + t.Pointer }
