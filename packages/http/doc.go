// Package http performs the requests of a collection.
//
// It wraps the standard library's http package with:
//   - Configurable timeouts, redirects, proxy and TLS verification
//   - Text, JSON and form request bodies
//   - Method, URL and header validation before anything is sent
//   - Responses read fully into memory with timing
package http
