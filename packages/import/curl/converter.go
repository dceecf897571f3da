// Package curl converts curl commands into glint collection requests.
package curl

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/abdul-hamid-achik/glint/packages/core/collection"
)

// Converter converts curl commands to collection requests.
type Converter struct {
	baseURLPlaceholder string
}

// Option is a functional option for Converter.
type Option func(*Converter)

// WithBaseURL replaces the scheme and host of every URL with a {name}
// placeholder resolved from the environment variable of the same name in
// upper case.
func WithBaseURL(name string) Option {
	return func(c *Converter) {
		c.baseURLPlaceholder = name
	}
}

// NewConverter creates a new curl converter.
func NewConverter(opts ...Option) *Converter {
	c := &Converter{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ParsedCurl represents a parsed curl command.
type ParsedCurl struct {
	Method    string
	URL       string
	Headers   map[string]string
	Body      string
	BasicAuth string
	Name      string
}

// ConvertCommand converts a single curl command to a request.
func (c *Converter) ConvertCommand(curlCmd string) (*collection.Request, error) {
	parsed, err := c.Parse(curlCmd)
	if err != nil {
		return nil, err
	}
	return c.ToRequest(parsed), nil
}

// Convert reads curl commands, one per line with backslash continuations,
// and returns them as a collection. Blank lines and # comments are skipped.
func (c *Converter) Convert(r io.Reader) (*collection.Collection, error) {
	var commands []string
	var currentCmd strings.Builder
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Handle line continuations
		if strings.HasSuffix(line, "\\") {
			currentCmd.WriteString(strings.TrimSuffix(line, "\\"))
			currentCmd.WriteString(" ")
			continue
		}

		currentCmd.WriteString(line)
		commands = append(commands, currentCmd.String())
		currentCmd.Reset()
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read commands: %w", err)
	}

	// Handle any remaining command
	if currentCmd.Len() > 0 {
		commands = append(commands, currentCmd.String())
	}

	out := &collection.Collection{}
	used := make(map[string]int)
	for i, cmd := range commands {
		req, err := c.ConvertCommand(cmd)
		if err != nil {
			return nil, fmt.Errorf("failed to convert command %d: %w", i+1, err)
		}
		used[req.Name]++
		if n := used[req.Name]; n > 1 {
			req.Name += "_" + strconv.Itoa(n)
		}
		out.Requests = append(out.Requests, req)
	}
	return out, nil
}

// Parse parses a curl command string into a ParsedCurl struct.
func (c *Converter) Parse(curlCmd string) (*ParsedCurl, error) {
	parsed := &ParsedCurl{
		Method:  "GET",
		Headers: make(map[string]string),
	}

	curlCmd = strings.TrimSpace(curlCmd)
	if curlCmd == "curl" {
		return nil, fmt.Errorf("no URL specified")
	}
	curlCmd = strings.TrimPrefix(curlCmd, "curl ")

	tokens := tokenize(curlCmd)
	methodSet := false

	value := func(i int) (string, error) {
		if i+1 < len(tokens) {
			return tokens[i+1], nil
		}
		return "", fmt.Errorf("missing value for %s", tokens[i])
	}

	i := 0
	for i < len(tokens) {
		token := tokens[i]

		switch token {
		case "-X", "--request":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			parsed.Method = strings.ToUpper(v)
			methodSet = true
			i += 2

		case "-H", "--header":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			if key, val, ok := strings.Cut(v, ":"); ok {
				parsed.Headers[strings.TrimSpace(key)] = strings.TrimSpace(val)
			}
			i += 2

		case "-d", "--data", "--data-raw", "--data-binary", "--json":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			parsed.Body = v
			if token == "--json" {
				parsed.Headers["Content-Type"] = "application/json"
			}
			// A body without -X implies POST
			if !methodSet {
				parsed.Method = "POST"
			}
			i += 2

		case "-u", "--user":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			parsed.BasicAuth = v
			i += 2

		case "-A", "--user-agent":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			parsed.Headers["User-Agent"] = v
			i += 2

		case "-e", "--referer":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			parsed.Headers["Referer"] = v
			i += 2

		case "-b", "--cookie":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			parsed.Headers["Cookie"] = v
			i += 2

		case "-k", "--insecure", "-L", "--location", "-s", "--silent", "-i", "--include", "-v", "--verbose", "--compressed":
			i++

		default:
			switch {
			case strings.HasPrefix(token, "-"):
				// Skip unknown flags with potential values
				if i+1 < len(tokens) && !strings.HasPrefix(tokens[i+1], "-") && !isURL(tokens[i+1]) {
					i += 2
				} else {
					i++
				}
			default:
				if parsed.URL == "" && isURL(token) {
					parsed.URL = token
				}
				i++
			}
		}
	}

	if parsed.URL == "" {
		return nil, fmt.Errorf("no URL found in curl command")
	}

	parsed.Name = sanitizeName(generateName(parsed.URL, parsed.Method))
	return parsed, nil
}

// ToRequest converts a ParsedCurl to a collection request. Basic auth
// credentials become a generated Authorization header.
func (c *Converter) ToRequest(parsed *ParsedCurl) *collection.Request {
	req := &collection.Request{
		Name:   parsed.Name,
		Method: parsed.Method,
		URL:    parsed.URL,
	}

	addDep := func(name string, dep collection.Dependency) {
		if req.Dependencies == nil {
			req.Dependencies = make(map[string]collection.Dependency)
		}
		req.Dependencies[name] = dep
	}

	if c.baseURLPlaceholder != "" {
		if u, err := url.Parse(parsed.URL); err == nil && u.Scheme != "" && u.Host != "" {
			req.URL = "{" + c.baseURLPlaceholder + "}" + strings.TrimPrefix(parsed.URL, u.Scheme+"://"+u.Host)
			addDep(c.baseURLPlaceholder, collection.EnvVar{
				Name:   strings.ToUpper(c.baseURLPlaceholder),
				Prompt: "Base URL",
			})
		}
	}

	if len(parsed.Headers) > 0 {
		req.Headers = make(map[string]string, len(parsed.Headers))
		for k, v := range parsed.Headers {
			req.Headers[k] = v
		}
	}

	if parsed.BasicAuth != "" {
		if req.Headers == nil {
			req.Headers = make(map[string]string)
		}
		req.Headers["Authorization"] = "Basic {basic_auth}"
		addDep("basic_auth", collection.Generated{Expression: fmt.Sprintf("base64('%s')", parsed.BasicAuth)})
	}

	if parsed.Body != "" {
		req.Body = bodyFor(parsed.Body, parsed.Headers["Content-Type"])
	}
	return req
}

func bodyFor(raw, contentType string) *collection.Body {
	var v any
	if json.Unmarshal([]byte(raw), &v) == nil {
		switch v.(type) {
		case map[string]any, []any:
			return &collection.Body{Kind: collection.BodyJSON, JSON: v}
		}
	}

	if contentType == "" || strings.HasPrefix(contentType, "application/x-www-form-urlencoded") {
		if values, err := url.ParseQuery(raw); err == nil && len(values) > 0 && strings.Contains(raw, "=") {
			form := make(map[string]string, len(values))
			for k := range values {
				form[k] = values.Get(k)
			}
			return &collection.Body{Kind: collection.BodyForm, Form: form}
		}
	}

	return &collection.Body{Kind: collection.BodyText, Text: raw}
}

// tokenize splits a curl command into tokens, respecting quotes.
func tokenize(cmd string) []string {
	var tokens []string
	var current strings.Builder
	inSingleQuote := false
	inDoubleQuote := false
	escaped := false

	for _, r := range cmd {
		if escaped {
			current.WriteRune(r)
			escaped = false
			continue
		}

		switch r {
		case '\\':
			if inSingleQuote {
				current.WriteRune(r)
			} else {
				escaped = true
			}
		case '\'':
			if !inDoubleQuote {
				inSingleQuote = !inSingleQuote
			} else {
				current.WriteRune(r)
			}
		case '"':
			if !inSingleQuote {
				inDoubleQuote = !inDoubleQuote
			} else {
				current.WriteRune(r)
			}
		case ' ', '\t':
			if inSingleQuote || inDoubleQuote {
				current.WriteRune(r)
			} else if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}

	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}

	return tokens
}

// isURL checks if a string looks like a URL.
func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "{")
}

var urlPattern = regexp.MustCompile(`https?://[^/]+(/[^?#]*)?`)

// generateName generates a request name from the URL and method.
func generateName(url, method string) string {
	matches := urlPattern.FindStringSubmatch(url)

	path := "/"
	if len(matches) > 1 && matches[1] != "" {
		path = matches[1]
	}

	path = strings.Trim(path, "/")
	if path == "" {
		path = "root"
	}

	path = strings.ReplaceAll(path, "/", "_")
	path = strings.ReplaceAll(path, "-", "_")

	return strings.ToLower(method) + "_" + path
}

var nonIdent = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// sanitizeName sanitizes a name for use as an identifier.
func sanitizeName(name string) string {
	result := nonIdent.ReplaceAllString(name, "_")
	return strings.Trim(result, "_")
}
