// Package runner executes the requests of a collection.
//
// Executor resolves every {placeholder} of a request through the dependency
// declared for it, sends the request and records the response in the run's
// history. A placeholder bound to another request's response executes that
// request first when it has not run yet. Requests currently being resolved
// are tracked on a stack so dependency cycles fail instead of recursing.
//
// All caches (environment values, env files, prompt answers, generated
// values and responses) belong to one Executor. Build a new Executor for
// every independent run.
package runner
