package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/abdul-hamid-achik/glint/packages/capture"
	"github.com/abdul-hamid-achik/glint/packages/core/collection"
	"github.com/abdul-hamid-achik/glint/packages/core/env"
)

// resolvePlaceholder returns the value of {name} in req. Failures are
// wrapped in a ResolutionError naming the request and placeholder.
func (e *Executor) resolvePlaceholder(ctx context.Context, req *collection.Request, name string) (string, error) {
	dep, ok := req.Dependency(name)
	if !ok {
		return "", &ResolutionError{Request: req.Name, Placeholder: name, Err: ErrPlaceholderDefinitionNotFound}
	}

	value, err := e.resolveDependency(ctx, req, name, dep)
	if err != nil {
		return "", &ResolutionError{Request: req.Name, Placeholder: name, Err: err}
	}
	return value, nil
}

func (e *Executor) resolveDependency(ctx context.Context, req *collection.Request, name string, dep collection.Dependency) (string, error) {
	e.logger.Debug("resolving placeholder",
		slog.String("request", req.Name),
		slog.String("placeholder", name),
		slog.String("source", dep.String()))

	switch d := dep.(type) {
	case collection.EnvVar:
		return e.vars.Resolve(ctx, d.Name, d.Prompt, e.prompts.Resolve)
	case collection.EnvFile:
		return e.files.Lookup(ctx, d.Path, d.Key, d.Prompt, e.prompts.Resolve)
	case collection.SecretStore:
		return e.secrets.Resolve(ctx, d.Vault, d.Item, d.Field)
	case collection.File:
		return env.ReadFile(d.Path)
	case collection.Prompt:
		return e.prompts.Resolve(ctx, d.Label)
	case collection.Response:
		return e.resolveResponse(ctx, d)
	case collection.Generated:
		return e.resolveGenerated(req.Name, name, d)
	default:
		return "", fmt.Errorf("%w: unsupported dependency %T", ErrInternal, dep)
	}
}

// resolveResponse reads from the history, executing the referenced request
// only when it has no recorded response yet.
func (e *Executor) resolveResponse(ctx context.Context, d collection.Response) (string, error) {
	value, err := e.history.Resolve(d.Request, d.Target)
	if err == nil {
		return value, nil
	}
	if !errors.Is(err, capture.ErrRequestNotFound) {
		return "", err
	}

	prerequisite, ok := e.collection.Find(d.Request)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrRequestNotFound, d.Request)
	}

	e.logger.Info("executing prerequisite", slog.String("request", d.Request))
	if _, err := e.ExecuteRequest(ctx, prerequisite); err != nil {
		return "", err
	}

	value, err = e.history.Resolve(d.Request, d.Target)
	if errors.Is(err, capture.ErrRequestNotFound) {
		return "", fmt.Errorf("%w: no response recorded for %s after executing it", ErrInternal, d.Request)
	}
	return value, err
}

func (e *Executor) resolveGenerated(request, placeholder string, d collection.Generated) (string, error) {
	key := request + "\x00" + placeholder
	if v, ok := e.generated[key]; ok {
		return v, nil
	}
	v, err := e.funcs.Call(d.Expression)
	if err != nil {
		return "", err
	}
	e.generated[key] = v
	return v, nil
}
