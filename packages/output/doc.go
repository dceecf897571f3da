// Package output renders executed requests.
//
// Supported output formats:
//   - Console: status badge, optional headers and a pretty-printed,
//     highlighted body
//   - JSON: one JSON object per request, one per line
//
// Both formatters apply the request's masking rules to copies of the
// response unless masking is disabled.
package output
