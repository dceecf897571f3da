package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/glint/packages/builtin"
	"github.com/abdul-hamid-achik/glint/packages/capture"
	"github.com/abdul-hamid-achik/glint/packages/core/collection"
	"github.com/abdul-hamid-achik/glint/packages/core/env"
	"github.com/abdul-hamid-achik/glint/packages/http"
	"github.com/abdul-hamid-achik/glint/packages/logging"
	"github.com/abdul-hamid-achik/glint/packages/prompt"
	"github.com/abdul-hamid-achik/glint/packages/secret"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const tracerName = "github.com/abdul-hamid-achik/glint/packages/core/runner"

// Renderer displays the response of a top-level request. Prerequisites
// executed to resolve a placeholder are not rendered.
type Renderer interface {
	Render(req *collection.Request, resp *http.Response) error
}

// Journal records every performed request.
type Journal interface {
	Record(ctx context.Context, runID string, req *collection.Request, resp *http.Response) error
}

type Executor struct {
	collection *collection.Collection
	client     http.Doer
	history    *capture.History

	vars      *env.VarResolver
	files     *env.FileStore
	prompts   *prompt.Resolver
	secrets   *secret.Resolver
	funcs     *builtin.Registry
	generated map[string]string

	inProgress []string

	renderer Renderer
	journal  Journal
	limiter  *rate.Limiter
	tracer   trace.Tracer
	logger   *slog.Logger
	runID    string

	prompter   prompt.Prompter
	secretOpts []secret.Option
}

type Option func(*Executor)

// WithClient sets the HTTP client. Defaults to http.NewClient().
func WithClient(c http.Doer) Option {
	return func(e *Executor) {
		e.client = c
	}
}

// WithPrompter sets how missing values are asked for. Without one, any
// prompt fails with prompt.ErrNoInteractiveInput.
func WithPrompter(p prompt.Prompter) Option {
	return func(e *Executor) {
		e.prompter = p
	}
}

func WithCommandRunner(r secret.CommandRunner) Option {
	return func(e *Executor) {
		e.secretOpts = append(e.secretOpts, secret.WithRunner(r))
	}
}

// WithSecretCommand overrides the secret store CLI binary.
func WithSecretCommand(command string) Option {
	return func(e *Executor) {
		e.secretOpts = append(e.secretOpts, secret.WithCommand(command))
	}
}

func WithRenderer(r Renderer) Option {
	return func(e *Executor) {
		e.renderer = r
	}
}

func WithJournal(j Journal) Option {
	return func(e *Executor) {
		e.journal = j
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithRateLimit spaces HTTP calls to at most rps per second. Zero disables the limit.
func WithRateLimit(rps float64) Option {
	return func(e *Executor) {
		if rps > 0 {
			e.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(e *Executor) {
		if t != nil {
			e.tracer = t
		}
	}
}

func WithRunID(id string) Option {
	return func(e *Executor) {
		if id != "" {
			e.runID = id
		}
	}
}

func New(c *collection.Collection, opts ...Option) *Executor {
	e := &Executor{
		collection: c,
		history:    capture.NewHistory(),
		vars:       env.NewVarResolver(),
		files:      env.NewFileStore(),
		funcs:      builtin.NewRegistry(),
		generated:  make(map[string]string),
		tracer:     otel.Tracer(tracerName),
		logger:     logging.Discard(),
		runID:      uuid.NewString(),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.client == nil {
		e.client = http.NewClient()
	}
	e.prompts = prompt.NewResolver(e.prompter)
	e.secrets = secret.NewResolver(e.secretOpts...)
	e.logger = e.logger.With(slog.String("run_id", e.runID))

	return e
}

func (e *Executor) RunID() string {
	return e.runID
}

// History returns the responses recorded so far in this run.
func (e *Executor) History() *capture.History {
	return e.history
}

// ExecuteAll executes and renders every request in declared order. The
// first failure stops the run.
func (e *Executor) ExecuteAll(ctx context.Context) error {
	e.logger.Info("run started",
		slog.String("collection", e.collection.Path),
		slog.Int("requests", len(e.collection.Requests)))

	for _, req := range e.collection.Requests {
		if err := e.executeTopLevel(ctx, req); err != nil {
			return err
		}
	}

	e.logger.Info("run finished")
	return nil
}

// ExecuteNamed executes and renders one request.
func (e *Executor) ExecuteNamed(ctx context.Context, name string) error {
	req, ok := e.collection.Find(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrRequestNotFound, name)
	}
	return e.executeTopLevel(ctx, req)
}

func (e *Executor) executeTopLevel(ctx context.Context, req *collection.Request) error {
	resp, err := e.ExecuteRequest(ctx, req)
	if err != nil {
		e.logger.Error("request failed",
			slog.String("request", req.Name),
			slog.String("kind", KindOf(err).String()),
			slog.Any("error", err))
		return err
	}

	if e.renderer != nil {
		if err := e.renderer.Render(req, resp); err != nil {
			return &ExecutionError{Request: req.Name, Err: fmt.Errorf("rendering response: %w", err)}
		}
	}
	return nil
}

// ExecuteRequest resolves, sends and records one request without rendering it.
func (e *Executor) ExecuteRequest(ctx context.Context, req *collection.Request) (*http.Response, error) {
	if i := slices.Index(e.inProgress, req.Name); i >= 0 {
		chain := append(slices.Clone(e.inProgress[i:]), req.Name)
		return nil, &CyclicDependencyError{Chain: chain}
	}
	e.inProgress = append(e.inProgress, req.Name)
	defer func() {
		e.inProgress = e.inProgress[:len(e.inProgress)-1]
	}()

	ctx, span := e.tracer.Start(ctx, "glint.request",
		trace.WithAttributes(
			attribute.String("glint.request.name", req.Name),
			attribute.String("glint.run_id", e.runID),
		))
	defer span.End()

	// The loaded collection stays read-only; each execution works on a copy.
	resp, err := e.execute(ctx, req.Clone())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	return resp, nil
}

func (e *Executor) execute(ctx context.Context, req *collection.Request) (*http.Response, error) {
	resolved, err := e.resolveRequest(ctx, req)
	if err != nil {
		return nil, wrapExecution(req.Name, err)
	}

	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("http.request.method", resolved.Method),
		attribute.String("url.full", resolved.URL),
	)

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, &ExecutionError{Request: req.Name, Err: err}
		}
	}

	start := time.Now()
	resp, err := e.client.Do(ctx, resolved)
	if err != nil {
		return nil, &ExecutionError{Request: req.Name, Err: err}
	}

	e.history.Save(req.Name, resp)
	e.logger.Info("request completed",
		slog.String("request", req.Name),
		slog.String("method", resolved.Method),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)))

	if e.journal != nil {
		if err := e.journal.Record(ctx, e.runID, req, resp); err != nil {
			e.logger.Warn("journal write failed", slog.String("request", req.Name), slog.Any("error", err))
		}
	}
	return resp, nil
}

// resolveRequest expands the URL, then headers in name order, then the
// body. Each placeholder is resolved at most once per request.
func (e *Executor) resolveRequest(ctx context.Context, req *collection.Request) (*http.Request, error) {
	values := make(map[string]string)
	lookup := func(ctx context.Context, name string) (string, error) {
		if v, ok := values[name]; ok {
			return v, nil
		}
		v, err := e.resolvePlaceholder(ctx, req, name)
		if err != nil {
			return "", err
		}
		values[name] = v
		return v, nil
	}

	url, err := env.Expand(ctx, req.URL, lookup)
	if err != nil {
		return nil, err
	}
	out := http.NewRequest(strings.ToUpper(req.Method), url)

	for _, name := range req.HeaderNames() {
		key, err := env.Expand(ctx, name, lookup)
		if err != nil {
			return nil, err
		}
		value, err := env.Expand(ctx, req.Headers[name], lookup)
		if err != nil {
			return nil, err
		}
		out.SetHeader(key, value)
	}

	if req.Body == nil {
		return out, nil
	}

	switch req.Body.Kind {
	case collection.BodyText:
		text, err := env.Expand(ctx, req.Body.Text, lookup)
		if err != nil {
			return nil, err
		}
		out.SetBody(text)
	case collection.BodyJSON:
		value, err := env.ExpandJSON(ctx, req.Body.JSON, lookup)
		if err != nil {
			return nil, err
		}
		text, err := env.MarshalJSON(value)
		if err != nil {
			return nil, err
		}
		out.SetJSONBody(text)
	case collection.BodyForm:
		keys := make([]string, 0, len(req.Body.Form))
		for k := range req.Body.Form {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fields := make(map[string]string, len(keys))
		for _, k := range keys {
			key, err := env.Expand(ctx, k, lookup)
			if err != nil {
				return nil, err
			}
			value, err := env.Expand(ctx, req.Body.Form[k], lookup)
			if err != nil {
				return nil, err
			}
			fields[key] = value
		}
		out.SetFormBody(fields)
	default:
		return nil, fmt.Errorf("%w: unknown body kind %q", ErrInternal, req.Body.Kind)
	}

	return out, nil
}

// wrapExecution leaves resolution and execution errors of this or a nested
// request as they are.
func wrapExecution(request string, err error) error {
	var resolution *ResolutionError
	var execution *ExecutionError
	if errors.As(err, &resolution) || errors.As(err, &execution) {
		return err
	}
	return &ExecutionError{Request: request, Err: err}
}
