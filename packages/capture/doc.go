// Package capture keeps the responses of executed requests and extracts
// values from them for later requests.
//
// Values can be read from:
//   - Response headers
//   - The JSON body, addressed with an RFC 6901 JSON Pointer
//
// History holds one entry per request name; saving a request again replaces
// its entry.
package capture
