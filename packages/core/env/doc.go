// Package env resolves placeholder values from the process environment and
// from files, and expands {name} placeholders in request templates.
//
// It provides:
//   - Expand and ExpandJSON: single-pass {name} substitution
//   - VarResolver: environment variables with an optional prompt fallback
//   - FileStore: flat key/value env files (TOML, YAML or .env) with prompt-and-persist
//   - ReadFile: whole-file values
//   - LoadDotEnv: startup loading of a .env file into the process environment
package env
