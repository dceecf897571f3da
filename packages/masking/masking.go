// Package masking redacts sensitive values from responses before they are displayed.
//
// A Rule selects string values with a JSONPath subset ($, .key, ['key'], [n],
// [*], .*) and rewrites them with a regular expression replacement. Masking
// always works on copies: stored responses keep their original values.
package masking

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ErrInvalidPath is returned for JSONPath expressions outside the supported subset.
var ErrInvalidPath = errors.New("invalid JSONPath")

// Rule masks the string values selected by Path.
type Rule struct {
	Path    string  `toml:"path" yaml:"path" json:"path"`
	Regex   Pattern `toml:"regex" yaml:"regex" json:"regex"`
	Replace string  `toml:"replace" yaml:"replace" json:"replace"`
}

// Pattern is a compiled regular expression decoded from text.
type Pattern struct {
	*regexp.Regexp
}

func MustPattern(expr string) Pattern {
	return Pattern{regexp.MustCompile(expr)}
}

func (p *Pattern) UnmarshalText(text []byte) error {
	re, err := regexp.Compile(string(text))
	if err != nil {
		return fmt.Errorf("invalid masking regex %q: %w", text, err)
	}
	p.Regexp = re
	return nil
}

func (p Pattern) MarshalText() ([]byte, error) {
	if p.Regexp == nil {
		return []byte{}, nil
	}
	return []byte(p.String()), nil
}

func (r Rule) mask(value string) string {
	if r.Regex.Regexp == nil {
		return value
	}
	return r.Regex.ReplaceAllString(value, r.Replace)
}

type segmentKind int

const (
	segKey segmentKind = iota
	segIndex
	segWildcard
)

type segment struct {
	kind  segmentKind
	key   string
	index int
}

func parsePath(path string) ([]segment, error) {
	path = strings.TrimSpace(path)
	if !strings.HasPrefix(path, "$") {
		return nil, fmt.Errorf("%w %q: must start with $", ErrInvalidPath, path)
	}

	var segs []segment
	i := 1
	for i < len(path) {
		switch path[i] {
		case '.':
			i++
			if i < len(path) && path[i] == '.' {
				return nil, fmt.Errorf("%w %q: recursive descent is not supported", ErrInvalidPath, path)
			}
			if i < len(path) && path[i] == '*' {
				segs = append(segs, segment{kind: segWildcard})
				i++
				continue
			}
			start := i
			for i < len(path) && path[i] != '.' && path[i] != '[' {
				i++
			}
			if start == i {
				return nil, fmt.Errorf("%w %q: empty key at offset %d", ErrInvalidPath, path, start)
			}
			segs = append(segs, segment{kind: segKey, key: path[start:i]})
		case '[':
			end := strings.IndexByte(path[i:], ']')
			if end < 0 {
				return nil, fmt.Errorf("%w %q: unclosed bracket", ErrInvalidPath, path)
			}
			inner := strings.TrimSpace(path[i+1 : i+end])
			i += end + 1
			switch {
			case inner == "*":
				segs = append(segs, segment{kind: segWildcard})
			case len(inner) >= 2 && (inner[0] == '\'' || inner[0] == '"') && inner[len(inner)-1] == inner[0]:
				segs = append(segs, segment{kind: segKey, key: inner[1 : len(inner)-1]})
			default:
				n, err := strconv.Atoi(inner)
				if err != nil || n < 0 {
					return nil, fmt.Errorf("%w %q: unsupported selector [%s]", ErrInvalidPath, path, inner)
				}
				segs = append(segs, segment{kind: segIndex, index: n})
			}
		default:
			return nil, fmt.Errorf("%w %q: unexpected %q at offset %d", ErrInvalidPath, path, path[i], i)
		}
	}
	return segs, nil
}

func escapeKey(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', '|', '#', '@', '!', '=', '<', '>', '%', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// expand turns a parsed path into concrete gjson paths present in doc.
func expand(doc []byte, prefix []string, segs []segment) []string {
	if len(segs) == 0 {
		return []string{strings.Join(prefix, ".")}
	}

	next := func(component string) []string {
		p := append(append([]string(nil), prefix...), component)
		return expand(doc, p, segs[1:])
	}

	seg := segs[0]
	switch seg.kind {
	case segKey:
		return next(escapeKey(seg.key))
	case segIndex:
		return next(strconv.Itoa(seg.index))
	}

	var current gjson.Result
	if len(prefix) == 0 {
		current = gjson.ParseBytes(doc)
	} else {
		current = gjson.GetBytes(doc, strings.Join(prefix, "."))
	}

	var paths []string
	switch {
	case current.IsArray():
		for i := range current.Array() {
			paths = append(paths, next(strconv.Itoa(i))...)
		}
	case current.IsObject():
		current.ForEach(func(key, _ gjson.Result) bool {
			paths = append(paths, next(escapeKey(key.String()))...)
			return true
		})
	}
	return paths
}

// JSON returns a copy of body with every rule applied to the string values it
// selects. Non-JSON bodies are returned unchanged.
func JSON(body []byte, rules []Rule) ([]byte, error) {
	if len(rules) == 0 || !gjson.ValidBytes(body) {
		return body, nil
	}

	doc := append([]byte(nil), body...)
	for _, rule := range rules {
		segs, err := parsePath(rule.Path)
		if err != nil {
			return nil, err
		}

		if len(segs) == 0 {
			root := gjson.ParseBytes(doc)
			if root.Type != gjson.String {
				continue
			}
			masked, err := json.Marshal(rule.mask(root.Str))
			if err != nil {
				return nil, err
			}
			doc = masked
			continue
		}

		for _, path := range expand(doc, nil, segs) {
			value := gjson.GetBytes(doc, path)
			if value.Type != gjson.String {
				continue
			}
			doc, err = sjson.SetBytes(doc, path, rule.mask(value.Str))
			if err != nil {
				return nil, fmt.Errorf("masking %s: %w", rule.Path, err)
			}
		}
	}
	return doc, nil
}

// Headers returns a masked copy of h. A rule with path $ applies to every
// header value; $.headers.<name> (or $.headers['<name>']) targets one header.
func Headers(h http.Header, rules []Rule) (http.Header, error) {
	masked := h.Clone()
	if masked == nil {
		masked = http.Header{}
	}

	for _, rule := range rules {
		segs, err := parsePath(rule.Path)
		if err != nil {
			return nil, err
		}

		switch {
		case len(segs) == 0:
			for name, values := range masked {
				for i, v := range values {
					masked[name][i] = rule.mask(v)
				}
			}
		case len(segs) == 2 && segs[0].kind == segKey && strings.EqualFold(segs[0].key, "headers"):
			var names []string
			if segs[1].kind == segWildcard {
				for name := range masked {
					names = append(names, name)
				}
			} else if segs[1].kind == segKey {
				names = append(names, http.CanonicalHeaderKey(segs[1].key))
			}
			for _, name := range names {
				for i, v := range masked[name] {
					masked[name][i] = rule.mask(v)
				}
			}
		}
	}
	return masked, nil
}
