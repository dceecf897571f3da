package runner

import (
	"context"
	"errors"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/abdul-hamid-achik/glint/packages/core/collection"
	"github.com/abdul-hamid-achik/glint/packages/http"
	"github.com/abdul-hamid-achik/glint/packages/prompt"
	"github.com/abdul-hamid-achik/glint/packages/secret"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// recordingServer counts hits per path and remembers the last request body.
type recordingServer struct {
	*httptest.Server
	mu     sync.Mutex
	hits   map[string]int
	bodies map[string]string
	heads  map[string]nethttp.Header
}

func newRecordingServer(t *testing.T, handler func(w nethttp.ResponseWriter, r *nethttp.Request)) *recordingServer {
	t.Helper()
	s := &recordingServer{
		hits:   make(map[string]int),
		bodies: make(map[string]string),
		heads:  make(map[string]nethttp.Header),
	}
	s.Server = httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		body, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.hits[r.URL.Path]++
		s.bodies[r.URL.Path] = string(body)
		s.heads[r.URL.Path] = r.Header.Clone()
		s.mu.Unlock()
		if handler != nil {
			handler(w, r)
			return
		}
		w.WriteHeader(nethttp.StatusOK)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *recordingServer) hitCount(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

type renderCall struct {
	name   string
	status int
}

type recordingRenderer struct {
	calls []renderCall
}

func (r *recordingRenderer) Render(req *collection.Request, resp *http.Response) error {
	r.calls = append(r.calls, renderCall{name: req.Name, status: resp.StatusCode})
	return nil
}

type recordingJournal struct {
	names []string
	runID string
}

func (j *recordingJournal) Record(_ context.Context, runID string, req *collection.Request, _ *http.Response) error {
	j.runID = runID
	j.names = append(j.names, req.Name)
	return nil
}

// mutatingJournal edits the request it is handed.
type mutatingJournal struct{}

func (mutatingJournal) Record(_ context.Context, _ string, req *collection.Request, _ *http.Response) error {
	req.Headers["Accept"] = "changed"
	req.Body.JSON.(map[string]any)["id"] = "changed"
	req.Dependencies["token"] = collection.EnvVar{Name: "CHANGED"}
	return nil
}

type fakeCommandRunner struct {
	stdout, stderr string
	err            error
	calls          int
}

func (f *fakeCommandRunner) Run(context.Context, string, ...string) ([]byte, []byte, error) {
	f.calls++
	return []byte(f.stdout), []byte(f.stderr), f.err
}

func newCollection(reqs ...*collection.Request) *collection.Collection {
	return &collection.Collection{Path: "test.toml", Requests: reqs}
}

func TestExecuteRequest_NoPlaceholders(t *testing.T) {
	srv := newRecordingServer(t, nil)
	req := &collection.Request{Name: "plain", Method: "get", URL: srv.URL + "/plain?q={}"}

	e := New(newCollection(req))
	resp, err := e.ExecuteRequest(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "GET", resp.Request.Method)
	assert.Equal(t, srv.URL+"/plain?q={}", resp.Request.URL)

	saved, ok := e.History().Get("plain")
	require.True(t, ok)
	assert.Same(t, resp, saved)
}

func TestExecuteRequest_JSONBodyFromEnv(t *testing.T) {
	t.Setenv("GLINT_TEST_TOKEN", "abc123")
	srv := newRecordingServer(t, nil)
	req := &collection.Request{
		Name:   "create",
		Method: "POST",
		URL:    srv.URL + "/items",
		Body:   &collection.Body{Kind: collection.BodyJSON, JSON: map[string]any{"id": "{token}"}},
		Dependencies: map[string]collection.Dependency{
			"token": collection.EnvVar{Name: "GLINT_TEST_TOKEN"},
		},
	}

	_, err := New(newCollection(req)).ExecuteRequest(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, `{"id":"abc123"}`, srv.bodies["/items"])
	assert.Equal(t, "application/json", srv.heads["/items"].Get("Content-Type"))
}

func TestExecuteRequest_JSONBodyDeclaredAsText(t *testing.T) {
	t.Setenv("GLINT_TEST_TOKEN", "abc123")
	srv := newRecordingServer(t, nil)
	doc := `
[[requests]]
name = "create"
method = "POST"
url = "` + srv.URL + `/items"
body = { type = "json", content = '{"id":"{token}","count":3}' }

[requests.dependencies]
token = { source = "env_var", name = "GLINT_TEST_TOKEN" }
`
	c, err := collection.Parse([]byte(doc), collection.FormatTOML)
	require.NoError(t, err)

	require.NoError(t, New(c).ExecuteNamed(context.Background(), "create"))
	assert.JSONEq(t, `{"id":"abc123","count":3}`, srv.bodies["/items"])
}

func TestExecuteRequest_HeadersAndForm(t *testing.T) {
	t.Setenv("GLINT_TEST_USER", "alice")
	t.Setenv("GLINT_TEST_KIND", "User")
	srv := newRecordingServer(t, nil)
	req := &collection.Request{
		Name:    "login",
		Method:  "POST",
		URL:     srv.URL + "/login",
		Headers: map[string]string{"X-{kind}": "{user}", "Accept": "text/plain"},
		Body:    &collection.Body{Kind: collection.BodyForm, Form: map[string]string{"user": "{user}"}},
		Dependencies: map[string]collection.Dependency{
			"user": collection.EnvVar{Name: "GLINT_TEST_USER"},
			"kind": collection.EnvVar{Name: "GLINT_TEST_KIND"},
		},
	}

	_, err := New(newCollection(req)).ExecuteRequest(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "alice", srv.heads["/login"].Get("X-User"))
	assert.Equal(t, "text/plain", srv.heads["/login"].Get("Accept"))
	assert.Equal(t, "user=alice", srv.bodies["/login"])
}

func TestExecuteRequest_ResponseDependency(t *testing.T) {
	srv := newRecordingServer(t, func(w nethttp.ResponseWriter, r *nethttp.Request) {
		switch r.URL.Path {
		case "/user":
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("ETag", "v7")
			_, _ = w.Write([]byte(`{"user":{"id":42,"nick":null}}`))
		default:
			w.WriteHeader(nethttp.StatusOK)
		}
	})

	user := &collection.Request{Name: "user", Method: "GET", URL: srv.URL + "/user"}
	detail := &collection.Request{
		Name:    "detail",
		Method:  "GET",
		URL:     srv.URL + "/users/{id}?nick={nick}",
		Headers: map[string]string{"If-None-Match": "{etag}"},
		Dependencies: map[string]collection.Dependency{
			"id":   collection.Response{Request: "user", Target: collection.JSONBody{Pointer: "/user/id"}},
			"nick": collection.Response{Request: "user", Target: collection.JSONBody{Pointer: "/user/nick"}},
			"etag": collection.Response{Request: "user", Target: collection.HeaderValue{Key: "etag"}},
		},
	}

	renderer := &recordingRenderer{}
	e := New(newCollection(user, detail), WithRenderer(renderer))
	require.NoError(t, e.ExecuteNamed(context.Background(), "detail"))

	assert.Equal(t, 1, srv.hitCount("/user"), "prerequisite executed once")
	assert.Equal(t, 1, srv.hitCount("/users/42"))
	assert.Equal(t, "v7", srv.heads["/users/42"].Get("If-None-Match"))
	assert.Equal(t, []renderCall{{name: "detail", status: 200}}, renderer.calls, "prerequisites are not rendered")

	resp, ok := e.History().Get("detail")
	require.True(t, ok)
	assert.Equal(t, srv.URL+"/users/42?nick=", resp.Request.URL)
}

func TestExecuteAll_ReexecutesDeclaredPrerequisite(t *testing.T) {
	srv := newRecordingServer(t, func(w nethttp.ResponseWriter, r *nethttp.Request) {
		_, _ = w.Write([]byte(`{"token":"t1"}`))
	})

	login := &collection.Request{Name: "login", Method: "POST", URL: srv.URL + "/login"}
	me := &collection.Request{
		Name:   "me",
		Method: "GET",
		URL:    srv.URL + "/me",
		Headers: map[string]string{"Authorization": "Bearer {token}"},
		Dependencies: map[string]collection.Dependency{
			"token": collection.Response{Request: "login", Target: collection.JSONBody{Pointer: "/token"}},
		},
	}

	renderer := &recordingRenderer{}
	journal := &recordingJournal{}
	e := New(newCollection(me, login), WithRenderer(renderer), WithJournal(journal), WithRunID("run-1"))
	require.NoError(t, e.ExecuteAll(context.Background()))

	assert.Equal(t, 2, srv.hitCount("/login"))
	assert.Equal(t, "Bearer t1", srv.heads["/me"].Get("Authorization"))
	assert.Equal(t, []renderCall{{"me", 200}, {"login", 200}}, renderer.calls)
	assert.Equal(t, []string{"login", "me", "login"}, journal.names)
	assert.Equal(t, "run-1", journal.runID)
	assert.Equal(t, "run-1", e.RunID())
}

func TestExecuteAll_StopsAtFirstFailure(t *testing.T) {
	srv := newRecordingServer(t, nil)
	first := &collection.Request{Name: "first", Method: "GET", URL: srv.URL + "/first"}
	second := &collection.Request{
		Name:   "second",
		Method: "GET",
		URL:    srv.URL + "/second/{missing}",
		Dependencies: map[string]collection.Dependency{
			"missing": collection.EnvVar{Name: "GLINT_TEST_SURELY_UNSET_VARIABLE"},
		},
	}
	third := &collection.Request{Name: "third", Method: "GET", URL: srv.URL + "/third"}

	renderer := &recordingRenderer{}
	err := New(newCollection(first, second, third), WithRenderer(renderer)).ExecuteAll(context.Background())

	require.Error(t, err)
	var resolution *ResolutionError
	require.ErrorAs(t, err, &resolution)
	assert.Equal(t, "second", resolution.Request)
	assert.Equal(t, "missing", resolution.Placeholder)
	assert.Equal(t, KindResolution, KindOf(err))

	assert.Equal(t, 1, srv.hitCount("/first"))
	assert.Equal(t, 0, srv.hitCount("/third"))
	assert.Equal(t, []renderCall{{"first", 200}}, renderer.calls)
}

func TestExecuteRequest_UndeclaredPlaceholder(t *testing.T) {
	srv := newRecordingServer(t, nil)
	req := &collection.Request{Name: "r", Method: "GET", URL: srv.URL + "/{nope}"}

	_, err := New(newCollection(req)).ExecuteRequest(context.Background(), req)

	assert.ErrorIs(t, err, ErrPlaceholderDefinitionNotFound)
	var resolution *ResolutionError
	require.ErrorAs(t, err, &resolution)
	assert.Equal(t, "nope", resolution.Placeholder)
	assert.Equal(t, 0, srv.hitCount("/{nope}"))
}

func TestExecuteRequest_PromptsOncePerRun(t *testing.T) {
	srv := newRecordingServer(t, nil)
	deps := map[string]collection.Dependency{
		"base": collection.EnvVar{Name: "GLINT_TEST_SURELY_UNSET_BASE", Prompt: "Base path"},
		"name": collection.Prompt{Label: "Name"},
	}
	a := &collection.Request{Name: "a", Method: "GET", URL: srv.URL + "/{base}/a/{name}", Dependencies: deps}
	b := &collection.Request{Name: "b", Method: "GET", URL: srv.URL + "/{base}/b/{name}?again={name}", Dependencies: deps}

	scripted := prompt.NewScripted(map[string]string{"Base path": "v1", "Name": "ann"})
	e := New(newCollection(a, b), WithPrompter(scripted))
	require.NoError(t, e.ExecuteAll(context.Background()))

	assert.Equal(t, 1, srv.hitCount("/v1/a/ann"))
	assert.Equal(t, 1, srv.hitCount("/v1/b/ann"))
	assert.Equal(t, []string{"Base path", "Name"}, scripted.Asked)
}

func TestExecuteRequest_NoPrompterFails(t *testing.T) {
	req := &collection.Request{
		Name:         "r",
		Method:       "GET",
		URL:          "http://localhost/{x}",
		Dependencies: map[string]collection.Dependency{"x": collection.Prompt{Label: "X"}},
	}

	_, err := New(newCollection(req)).ExecuteRequest(context.Background(), req)
	assert.ErrorIs(t, err, prompt.ErrNoInteractiveInput)
	assert.Equal(t, KindResolution, KindOf(err))
}

func TestExecuteRequest_EnvFileAndFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "secrets.toml")
	tokenFile := filepath.Join(dir, "token.txt")
	require.NoError(t, os.WriteFile(envFile, []byte(`user = "bob"`), 0o600))
	require.NoError(t, os.WriteFile(tokenFile, []byte("tok\n"), 0o600))

	srv := newRecordingServer(t, nil)
	req := &collection.Request{
		Name:   "r",
		Method: "GET",
		URL:    srv.URL + "/{user}/{token}/{password}",
		Dependencies: map[string]collection.Dependency{
			"user":     collection.EnvFile{Path: envFile, Key: "user"},
			"token":    collection.File{Path: tokenFile},
			"password": collection.EnvFile{Path: envFile, Key: "password", Prompt: "Password"},
		},
	}

	scripted := prompt.NewScripted(map[string]string{"Password": "pw"})
	_, err := New(newCollection(req), WithPrompter(scripted)).ExecuteRequest(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, srv.hitCount("/bob/tok/pw"))

	data, err := os.ReadFile(envFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "pw")
}

func TestExecuteRequest_SecretStore(t *testing.T) {
	srv := newRecordingServer(t, nil)
	req := &collection.Request{
		Name:         "r",
		Method:       "GET",
		URL:          srv.URL + "/{pw}",
		Headers:      map[string]string{"X-Secret": "{pw}"},
		Dependencies: map[string]collection.Dependency{"pw": collection.SecretStore{Vault: "dev", Item: "api", Field: "password"}},
	}

	runner := &fakeCommandRunner{stdout: "hunter2\n"}
	_, err := New(newCollection(req), WithCommandRunner(runner)).ExecuteRequest(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, srv.hitCount("/hunter2"))
	assert.Equal(t, 1, runner.calls, "resolved once per request")

	failing := &fakeCommandRunner{stderr: "Item not found", err: errors.New("exit status 1")}
	_, err = New(newCollection(req), WithCommandRunner(failing)).ExecuteRequest(context.Background(), req)
	assert.ErrorIs(t, err, secret.ErrItemNotFound)
	assert.Equal(t, KindExternalTool, KindOf(err))
}

func TestExecuteRequest_GeneratedCachedPerRequestAndPlaceholder(t *testing.T) {
	srv := newRecordingServer(t, nil)
	deps := map[string]collection.Dependency{
		"id":    collection.Generated{Expression: "uuid()"},
		"other": collection.Generated{Expression: "uuid()"},
	}
	req := &collection.Request{Name: "r", Method: "GET", URL: srv.URL + "/x", Headers: map[string]string{"A": "{id}", "B": "{other}"}, Dependencies: deps}

	e := New(newCollection(req))
	first, err := e.ExecuteRequest(context.Background(), req)
	require.NoError(t, err)
	firstA := srv.heads["/x"].Get("A")
	firstB := srv.heads["/x"].Get("B")
	assert.NotEqual(t, firstA, firstB)

	_, err = e.ExecuteRequest(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, firstA, srv.heads["/x"].Get("A"))
	assert.NotNil(t, first)
}

func TestExecuteRequest_Cycle(t *testing.T) {
	a := &collection.Request{
		Name: "a", Method: "GET", URL: "http://localhost/{b}",
		Dependencies: map[string]collection.Dependency{
			"b": collection.Response{Request: "b", Target: collection.JSONBody{Pointer: "/v"}},
		},
	}
	b := &collection.Request{
		Name: "b", Method: "GET", URL: "http://localhost/{a}",
		Dependencies: map[string]collection.Dependency{
			"a": collection.Response{Request: "a", Target: collection.JSONBody{Pointer: "/v"}},
		},
	}

	_, err := New(newCollection(a, b)).ExecuteRequest(context.Background(), a)

	var cyclic *CyclicDependencyError
	require.ErrorAs(t, err, &cyclic)
	assert.Equal(t, []string{"a", "b", "a"}, cyclic.Chain)
	assert.Equal(t, KindResolution, KindOf(err))
}

func TestExecuteRequest_SelfReference(t *testing.T) {
	a := &collection.Request{
		Name: "a", Method: "GET", URL: "http://localhost/{self}",
		Dependencies: map[string]collection.Dependency{
			"self": collection.Response{Request: "a", Target: collection.HeaderValue{Key: "X"}},
		},
	}

	_, err := New(newCollection(a)).ExecuteRequest(context.Background(), a)

	var cyclic *CyclicDependencyError
	require.ErrorAs(t, err, &cyclic)
	assert.Equal(t, []string{"a", "a"}, cyclic.Chain)
}

func TestExecuteRequest_UndeclaredPrerequisite(t *testing.T) {
	req := &collection.Request{
		Name: "r", Method: "GET", URL: "http://localhost/{t}",
		Dependencies: map[string]collection.Dependency{
			"t": collection.Response{Request: "ghost", Target: collection.JSONBody{Pointer: "/t"}},
		},
	}

	_, err := New(newCollection(req)).ExecuteRequest(context.Background(), req)
	assert.ErrorIs(t, err, ErrRequestNotFound)
}

func TestExecuteRequest_ExtractionMissIsNotRefetched(t *testing.T) {
	srv := newRecordingServer(t, func(w nethttp.ResponseWriter, r *nethttp.Request) {
		_, _ = w.Write([]byte(`{"a":1}`))
	})
	src := &collection.Request{Name: "src", Method: "GET", URL: srv.URL + "/src"}
	req := &collection.Request{
		Name: "r", Method: "GET", URL: srv.URL + "/{b}",
		Dependencies: map[string]collection.Dependency{
			"b": collection.Response{Request: "src", Target: collection.JSONBody{Pointer: "/b"}},
		},
	}

	e := New(newCollection(src, req))
	_, err := e.ExecuteRequest(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, 1, srv.hitCount("/src"))

	_, err = e.ExecuteRequest(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, 1, srv.hitCount("/src"))
}

func TestExecuteRequest_PrerequisiteTransportFailure(t *testing.T) {
	src := &collection.Request{Name: "src", Method: "GET", URL: "ftp://nowhere/src"}
	req := &collection.Request{
		Name: "r", Method: "GET", URL: "http://localhost/{b}",
		Dependencies: map[string]collection.Dependency{
			"b": collection.Response{Request: "src", Target: collection.JSONBody{Pointer: "/b"}},
		},
	}

	_, err := New(newCollection(src, req)).ExecuteRequest(context.Background(), req)

	var execution *ExecutionError
	require.ErrorAs(t, err, &execution)
	assert.Equal(t, "src", execution.Request)
	assert.ErrorIs(t, err, http.ErrInvalidURL)
	assert.Equal(t, KindTransport, KindOf(err))
}

func TestExecuteNamed_NotFound(t *testing.T) {
	err := New(newCollection()).ExecuteNamed(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrRequestNotFound)
}

func TestExecuteRequest_InvalidJSONAfterExpansion(t *testing.T) {
	t.Setenv("GLINT_TEST_QUOTE", `"`)
	req := &collection.Request{
		Name: "r", Method: "POST", URL: "http://localhost/x",
		Body:         &collection.Body{Kind: collection.BodyJSON, JSON: map[string]any{"q": "{q}"}},
		Dependencies: map[string]collection.Dependency{"q": collection.EnvVar{Name: "GLINT_TEST_QUOTE"}},
	}

	_, err := New(newCollection(req)).ExecuteRequest(context.Background(), req)
	var execution *ExecutionError
	require.ErrorAs(t, err, &execution)
	assert.Equal(t, KindTransport, KindOf(err))
}

func TestExecuteRequest_RateLimit(t *testing.T) {
	srv := newRecordingServer(t, nil)
	req := &collection.Request{Name: "r", Method: "GET", URL: srv.URL + "/r"}
	e := New(newCollection(req), WithRateLimit(1000))

	for range 3 {
		_, err := e.ExecuteRequest(context.Background(), req)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, srv.hitCount("/r"))
}

func TestExecuteRequest_Canceled(t *testing.T) {
	srv := newRecordingServer(t, nil)
	req := &collection.Request{Name: "r", Method: "GET", URL: srv.URL + "/r"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(newCollection(req)).ExecuteRequest(ctx, req)
	assert.Equal(t, KindCanceled, KindOf(err))
}

func TestExecuteRequest_TracesNestedPrerequisite(t *testing.T) {
	srv := newRecordingServer(t, func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"t1"}`))
	})

	login := &collection.Request{Name: "login", Method: "POST", URL: srv.URL + "/login"}
	me := &collection.Request{
		Name:    "me",
		Method:  "GET",
		URL:     srv.URL + "/me",
		Headers: map[string]string{"Authorization": "Bearer {token}"},
		Dependencies: map[string]collection.Dependency{
			"token": collection.Response{Request: "login", Target: collection.JSONBody{Pointer: "/token"}},
		},
	}

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	e := New(newCollection(login, me), WithTracer(tp.Tracer("test")), WithRunID("run-1"))
	require.NoError(t, e.ExecuteNamed(context.Background(), "me"))

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)

	byName := make(map[string]tracetest.SpanStub, len(spans))
	for _, s := range spans {
		assert.Equal(t, "glint.request", s.Name)
		for _, attr := range s.Attributes {
			if attr.Key == "glint.request.name" {
				byName[attr.Value.AsString()] = s
			}
		}
	}
	require.Contains(t, byName, "login")
	require.Contains(t, byName, "me")
	assert.Equal(t, byName["me"].SpanContext.SpanID(), byName["login"].Parent.SpanID())
	assert.Equal(t, byName["me"].SpanContext.TraceID(), byName["login"].SpanContext.TraceID())
}

func TestExecuteRequest_LeavesCollectionUntouched(t *testing.T) {
	t.Setenv("GLINT_TEST_TOKEN", "abc123")
	srv := newRecordingServer(t, nil)
	req := &collection.Request{
		Name:    "create",
		Method:  "POST",
		URL:     srv.URL + "/items",
		Headers: map[string]string{"Accept": "application/json"},
		Body:    &collection.Body{Kind: collection.BodyJSON, JSON: map[string]any{"id": "{token}"}},
		Dependencies: map[string]collection.Dependency{
			"token": collection.EnvVar{Name: "GLINT_TEST_TOKEN"},
		},
	}

	e := New(newCollection(req), WithJournal(mutatingJournal{}))
	for range 2 {
		_, err := e.ExecuteRequest(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, `{"id":"abc123"}`, srv.bodies["/items"])
		assert.Equal(t, "application/json", srv.heads["/items"].Get("Accept"))
	}

	assert.Equal(t, "application/json", req.Headers["Accept"])
	assert.Equal(t, map[string]any{"id": "{token}"}, req.Body.JSON)
	assert.Equal(t, collection.EnvVar{Name: "GLINT_TEST_TOKEN"}, req.Dependencies["token"])
}
