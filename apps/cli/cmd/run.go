package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/abdul-hamid-achik/glint/packages/core/collection"
	"github.com/abdul-hamid-achik/glint/packages/core/config"
	"github.com/abdul-hamid-achik/glint/packages/core/runner"
	"github.com/abdul-hamid-achik/glint/packages/http"
	"github.com/abdul-hamid-achik/glint/packages/journal"
	"github.com/abdul-hamid-achik/glint/packages/output"
	"github.com/abdul-hamid-achik/glint/packages/prompt"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <collection> [request]",
	Short: "Execute the requests of a collection",
	Long: `Execute every request of a collection in declared order, or only the
named request. Requests referenced through response dependencies are
executed first when their values are needed.

Examples:
  glint run api.toml
  glint run api.toml me --show-headers
  glint run api.yaml login --answer "Password=s3cret" --output json
  glint run api.toml --watch`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runCommand,
}

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

var (
	outputFlag         string
	showHeadersFlag    bool
	hideStatusFlag     bool
	hideBodyFlag       bool
	rawFlag            bool
	noMaskFlag         bool
	verboseFlag        bool
	noColorFlag        bool
	watchFlag          bool
	answerFlags        []string
	nonInteractiveFlag bool
	insecureFlag       bool
	timeoutFlag        time.Duration
	proxyFlag          string
	rateLimitFlag      float64
	journalFlag        string
)

func init() {
	// Output flags
	runCmd.Flags().StringVarP(&outputFlag, "output", "o", "console", "Output format: console, json")
	runCmd.Flags().BoolVar(&showHeadersFlag, "show-headers", false, "Print response headers")
	runCmd.Flags().BoolVar(&hideStatusFlag, "hide-status", false, "Do not print the response status")
	runCmd.Flags().BoolVar(&hideBodyFlag, "hide-body", false, "Do not print the response body")
	runCmd.Flags().BoolVar(&rawFlag, "raw", false, "Print bodies compact and without highlighting")
	runCmd.Flags().BoolVar(&noMaskFlag, "no-mask", false, "Disable masking rules")
	runCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "Print the resolved request line")
	runCmd.Flags().BoolVar(&noColorFlag, "no-color", false, "Disable colored output")

	// Execution flags
	runCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch the collection and re-run on change")
	runCmd.Flags().StringArrayVarP(&answerFlags, "answer", "a", nil, "Answer a prompt without asking, as label=value (repeatable)")
	runCmd.Flags().BoolVar(&nonInteractiveFlag, "non-interactive", false, "Never prompt; unanswered prompts fail")

	// Network flags, overriding config
	runCmd.Flags().DurationVar(&timeoutFlag, "timeout", config.DefaultConfig().Timeout, "Request timeout (env: GLINT_TIMEOUT)")
	runCmd.Flags().StringVar(&proxyFlag, "proxy", "", "Proxy URL for HTTP requests (env: GLINT_PROXY)")
	runCmd.Flags().BoolVarP(&insecureFlag, "insecure", "k", false, "Disable SSL certificate validation")
	runCmd.Flags().Float64Var(&rateLimitFlag, "rate-limit", 0, "Maximum requests per second, 0 for unlimited (env: GLINT_RATE_LIMIT)")
	runCmd.Flags().StringVar(&journalFlag, "journal", "", "Record performed requests in this SQLite file (env: GLINT_JOURNAL_PATH)")
}

// Formatter renders top-level responses and run errors.
type Formatter interface {
	runner.Renderer
	FormatHeader(version string)
	FormatError(err error)
}

type jsonFormatter struct {
	*output.JSONFormatter
	errw io.Writer
}

// FormatHeader is a no-op so stdout stays one JSON record per line.
func (jsonFormatter) FormatHeader(string) {}

func (f jsonFormatter) FormatError(err error) {
	fmt.Fprintf(f.errw, "Error: %v\n", err)
}

func newFormatter(cmd *cobra.Command) (Formatter, error) {
	opts := output.Options{
		ShowHeaders:    showHeadersFlag,
		HideStatus:     hideStatusFlag,
		HideBody:       hideBodyFlag,
		Raw:            rawFlag,
		DisableMasking: noMaskFlag,
	}

	switch strings.ToLower(outputFlag) {
	case "json":
		return jsonFormatter{
			JSONFormatter: output.NewJSONFormatter(
				output.JSONWithWriter(cmd.OutOrStdout()),
				output.JSONWithOptions(opts),
			),
			errw: cmd.ErrOrStderr(),
		}, nil
	case "console", "":
		return output.NewConsoleFormatter(
			output.WithWriter(cmd.OutOrStdout()),
			output.WithVerbose(verboseFlag),
			output.WithNoColor(noColorFlag),
			output.WithOptions(opts),
		), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want console or json)", outputFlag)
	}
}

func newPrompter(answers map[string]string) prompt.Prompter {
	var chain prompt.Chain
	if len(answers) > 0 {
		chain = append(chain, prompt.NewScripted(answers))
	}
	if !nonInteractiveFlag {
		chain = append(chain, prompt.NewTerminal())
	}
	if len(chain) == 0 {
		return nil
	}
	return chain
}

func newClient(cfg *config.Config) *http.Client {
	return http.NewClient(
		http.WithTimeout(cfg.Timeout),
		http.WithFollowRedirects(cfg.FollowRedirects),
		http.WithMaxRedirects(cfg.MaxRedirects),
		http.WithValidateSSL(cfg.ValidateSSL && !insecureFlag),
		http.WithProxy(cfg.Proxy),
		http.WithDefaultHeaders(cfg.Headers),
	)
}

func runCommand(cmd *cobra.Command, args []string) error {
	cfg := app.config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	answers, err := prompt.ParseAnswers(answerFlags)
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}

	formatter, err := newFormatter(cmd)
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}

	path := args[0]
	var requestName string
	if len(args) > 1 {
		requestName = args[1]
	}

	var j *journal.Journal
	if cfg.Journal.Path != "" {
		j, err = journal.Open(cfg.Journal.Path)
		if err != nil {
			return withExitCode(ExitConfigError, err)
		}
		defer j.Close()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Each run gets a fresh executor so caches and history never leak
	// between watch iterations.
	runOnce := func(ctx context.Context) error {
		c, err := collection.LoadFile(path)
		if err != nil {
			return withExitCode(ExitParseError, err)
		}

		opts := []runner.Option{
			runner.WithClient(newClient(cfg)),
			runner.WithPrompter(newPrompter(answers)),
			runner.WithSecretCommand(cfg.SecretStore.Command),
			runner.WithRenderer(formatter),
			runner.WithLogger(logger()),
			runner.WithRateLimit(cfg.RateLimit),
		}
		if j != nil {
			opts = append(opts, runner.WithJournal(j))
		}

		ex := runner.New(c, opts...)
		if requestName != "" {
			return ex.ExecuteNamed(ctx, requestName)
		}
		return ex.ExecuteAll(ctx)
	}

	if verboseFlag {
		formatter.FormatHeader(version)
	}

	err = runOnce(ctx)
	if !watchFlag {
		return err
	}
	if err != nil {
		formatter.FormatError(err)
	}

	return watch(ctx, cmd, path, formatter, runOnce)
}

func watch(ctx context.Context, cmd *cobra.Command, path string, formatter Formatter, runOnce func(context.Context) error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often replace files instead of writing them, so watch the directory.
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n\n")

	rerun := make(chan string, 1)
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			// Debounce: reset timer on each event
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			name := event.Name
			debounceTimer = time.AfterFunc(WatchDebounceDelay, func() {
				select {
				case rerun <- name:
				default:
				}
			})

		case name := <-rerun:
			fmt.Fprintf(cmd.OutOrStdout(), "\n\nFile changed: %s\nRe-running...\n\n", name)
			logger().Info("collection changed", slog.String("file", name))
			if err := runOnce(ctx); err != nil {
				formatter.FormatError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n")

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			formatter.FormatError(fmt.Errorf("watcher error: %w", err))
		}
	}
}
