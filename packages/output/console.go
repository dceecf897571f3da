package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/abdul-hamid-achik/glint/packages/core/collection"
	"github.com/abdul-hamid-achik/glint/packages/http"
	"github.com/alecthomas/chroma/v2/quick"
	"github.com/fatih/color"
)

const highlightStyle = "monokai"

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
	opts    Options
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

// WithVerbose also prints the resolved request line.
func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

func WithOptions(o Options) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.opts = o
	}
}

func (f *ConsoleFormatter) Render(req *collection.Request, resp *http.Response) error {
	headers, body, err := f.opts.masked(req, resp.Headers, resp.Body)
	if err != nil {
		return err
	}

	bold := color.New(color.Bold).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()

	fmt.Fprintf(f.writer, "%s %s", cyan("▶"), bold(req.Name))
	if f.verbose && resp.Request != nil {
		fmt.Fprintf(f.writer, " %s", faint(resp.Request.Method+" "+resp.Request.URL))
	}
	fmt.Fprintln(f.writer)

	if !f.opts.HideStatus {
		fmt.Fprintf(f.writer, "%s %s\n", statusBadge(resp), cyan(fmt.Sprintf("(%dms)", resp.DurationMs())))
	}

	if f.opts.ShowHeaders {
		names := make([]string, 0, len(headers))
		for name := range headers {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			for _, v := range headers[name] {
				fmt.Fprintf(f.writer, "%s: %s\n", bold(name), v)
			}
		}
		fmt.Fprintln(f.writer)
	}

	if !f.opts.HideBody && len(body) > 0 {
		if err := f.writeBody(body); err != nil {
			return err
		}
	}

	fmt.Fprintln(f.writer)
	return nil
}

func (f *ConsoleFormatter) writeBody(body []byte) error {
	if f.opts.Raw {
		if compact, ok := compactJSON(body); ok {
			body = compact
		}
		_, err := fmt.Fprintln(f.writer, string(body))
		return err
	}

	pretty, ok := indentJSON(body)
	if !ok {
		_, err := fmt.Fprintln(f.writer, strings.TrimRight(string(body), "\n"))
		return err
	}

	if color.NoColor {
		_, err := fmt.Fprintln(f.writer, string(pretty))
		return err
	}
	if err := quick.Highlight(f.writer, string(pretty), "json", "terminal256", highlightStyle); err != nil {
		return err
	}
	_, err := fmt.Fprintln(f.writer)
	return err
}

func statusBadge(resp *http.Response) string {
	var c *color.Color
	switch resp.Class() {
	case http.ClassSuccess:
		c = color.New(color.BgGreen, color.FgBlack, color.Bold)
	case http.ClassRedirect:
		c = color.New(color.BgCyan, color.FgBlack, color.Bold)
	case http.ClassClientError:
		c = color.New(color.BgYellow, color.FgBlack, color.Bold)
	case http.ClassServerError:
		c = color.New(color.BgRed, color.FgWhite, color.Bold)
	default:
		c = color.New(color.Bold)
	}
	status := resp.Status
	if status == "" {
		status = fmt.Sprintf("%d", resp.StatusCode)
	}
	return c.Sprintf(" %s ", status)
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", bold("glint"), version)
}
