package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/glint/packages/builtin"
	"github.com/abdul-hamid-achik/glint/packages/capture"
	"github.com/abdul-hamid-achik/glint/packages/core/env"
	"github.com/abdul-hamid-achik/glint/packages/http"
	"github.com/abdul-hamid-achik/glint/packages/prompt"
	"github.com/abdul-hamid-achik/glint/packages/secret"
)

var (
	// ErrPlaceholderDefinitionNotFound is returned for a {name} token without a declared dependency.
	ErrPlaceholderDefinitionNotFound = errors.New("no dependency declared for placeholder")
	ErrRequestNotFound               = errors.New("request not found in collection")
	ErrInternal                      = errors.New("internal error")
)

// Kind groups failures for reporting and exit codes.
type Kind int

const (
	KindInternal Kind = iota
	KindResolution
	KindTransport
	KindExternalTool
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindResolution:
		return "resolution"
	case KindTransport:
		return "transport"
	case KindExternalTool:
		return "external tool"
	case KindCanceled:
		return "canceled"
	default:
		return "internal"
	}
}

// CyclicDependencyError is returned when resolving a request needs the
// response of a request that is still being resolved.
type CyclicDependencyError struct {
	Chain []string
}

func (e *CyclicDependencyError) Error() string {
	return "cyclic dependency: " + strings.Join(e.Chain, " -> ")
}

// ResolutionError reports a placeholder that could not be resolved.
type ResolutionError struct {
	Request     string
	Placeholder string
	Err         error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("request %q: resolving {%s}: %v", e.Request, e.Placeholder, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// ExecutionError reports a request that could not be built or performed.
type ExecutionError struct {
	Request string
	Err     error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("request %q: %v", e.Request, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// KindOf classifies err by its root cause. A prerequisite that failed on
// the network makes the dependent request a transport failure too.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, http.ErrRequestFailed):
		return KindCanceled
	case errors.Is(err, ErrInternal):
		return KindInternal
	case isAny(err, secret.ErrCLINotFound, secret.ErrVaultNotFound, secret.ErrItemNotFound,
		secret.ErrFieldNotFound, secret.ErrFetch, secret.ErrParse):
		return KindExternalTool
	case isAny(err, http.ErrInvalidMethod, http.ErrInvalidURL, http.ErrInvalidHeaderName,
		http.ErrInvalidHeaderValue, http.ErrRequestFailed, env.ErrInvalidJSONBody):
		return KindTransport
	}

	var cyclic *CyclicDependencyError
	if errors.As(err, &cyclic) {
		return KindResolution
	}
	if isAny(err, ErrPlaceholderDefinitionNotFound, ErrRequestNotFound, env.ErrNotFound,
		capture.ErrRequestNotFound, capture.ErrHeaderNotFound, capture.ErrInvalidHeaderFormat,
		capture.ErrInvalidPath, prompt.ErrNoInteractiveInput, prompt.ErrPromptFailed,
		builtin.ErrInvalidExpression, builtin.ErrUnknownFunction, builtin.ErrInvalidArgument) {
		return KindResolution
	}

	var resolution *ResolutionError
	if errors.As(err, &resolution) {
		return KindResolution
	}
	return KindInternal
}

func isAny(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
