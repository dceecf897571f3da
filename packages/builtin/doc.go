// Package builtin evaluates the function expressions behind generated
// placeholder values.
//
// Available functions:
//   - uuid(): random UUID v4
//   - now(), date(layout): current UTC time, RFC 3339 or a Go layout
//   - timestamp(), timestampMs(): Unix time in seconds or milliseconds
//   - random(min, max): random integer in the closed range
//   - randomString(length), randomEmail(): random text
//   - base64(value), base64Decode(value), sha256(value), md5(value)
//   - urlEncode(value), urlDecode(value)
//   - env(name): process environment variable
//
// A dependency such as { source = "generated", expression = "uuid()" } is
// evaluated once per request and placeholder in a run.
package builtin
