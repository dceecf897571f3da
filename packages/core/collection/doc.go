// Package collection loads glint collection documents and defines the request model.
//
// A collection is a TOML or YAML document holding an ordered list of named requests.
// Each request declares:
//   - method, URL and header templates containing {placeholder} tokens
//   - an optional text, JSON or form body
//   - the dependency that resolves each placeholder
//   - masking rules used when the response is displayed
//
// Dependencies form a closed set of variants (environment variable, env file,
// secret store, file, prompt, response of another request, generated value).
package collection
