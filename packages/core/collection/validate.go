package collection

import (
	"fmt"
	"sort"
	"strings"

	"github.com/abdul-hamid-achik/glint/packages/core/env"
)

// Issue is a problem found by Validate.
type Issue struct {
	Request string
	Message string
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s: %s", i.Request, i.Message)
}

// Placeholders returns every placeholder the request uses, in order of first
// appearance across URL, headers and body.
func (r *Request) Placeholders() []string {
	var (
		names []string
		seen  = make(map[string]bool)
	)
	add := func(tmpl string) {
		for _, name := range env.Placeholders(tmpl) {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}

	add(r.URL)
	for _, name := range r.HeaderNames() {
		add(name)
		add(r.Headers[name])
	}
	if r.Body != nil {
		switch r.Body.Kind {
		case BodyText:
			add(r.Body.Text)
		case BodyJSON:
			walkStrings(r.Body.JSON, add)
		case BodyForm:
			keys := make([]string, 0, len(r.Body.Form))
			for k := range r.Body.Form {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				add(k)
				add(r.Body.Form[k])
			}
		}
	}
	return names
}

func walkStrings(v any, fn func(string)) {
	switch val := v.(type) {
	case string:
		fn(val)
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fn(k)
			walkStrings(val[k], fn)
		}
	case []any:
		for _, item := range val {
			walkStrings(item, fn)
		}
	}
}

// Validate checks the collection without executing it: every used
// placeholder has a dependency, response dependencies name declared
// requests, and no request depends on itself through other requests.
func (c *Collection) Validate() []Issue {
	var issues []Issue
	edges := make(map[string][]string, len(c.Requests))

	for _, req := range c.Requests {
		for _, name := range req.Placeholders() {
			dep, ok := req.Dependency(name)
			if !ok {
				issues = append(issues, Issue{req.Name, fmt.Sprintf("placeholder {%s} has no dependency", name)})
				continue
			}
			resp, ok := dep.(Response)
			if !ok {
				continue
			}
			if _, found := c.Find(resp.Request); !found {
				issues = append(issues, Issue{req.Name, fmt.Sprintf("placeholder {%s} reads unknown request %q", name, resp.Request)})
				continue
			}
			edges[req.Name] = append(edges[req.Name], resp.Request)
		}
	}

	return append(issues, findCycles(c.Names(), edges)...)
}

func findCycles(names []string, edges map[string][]string) []Issue {
	const (
		unvisited = iota
		visiting
		done
	)

	var (
		issues []Issue
		state  = make(map[string]int, len(names))
		stack  []string
	)

	var visit func(name string)
	visit = func(name string) {
		state[name] = visiting
		stack = append(stack, name)
		for _, next := range edges[name] {
			switch state[next] {
			case visiting:
				start := 0
				for i, s := range stack {
					if s == next {
						start = i
						break
					}
				}
				chain := append(append([]string(nil), stack[start:]...), next)
				issues = append(issues, Issue{next, "dependency cycle: " + strings.Join(chain, " -> ")})
			case unvisited:
				visit(next)
			}
		}
		stack = stack[:len(stack)-1]
		state[name] = done
	}

	for _, name := range names {
		if state[name] == unvisited {
			visit(name)
		}
	}
	return issues
}
