// Package config handles configuration loading for glint.
//
// Settings are read, lowest precedence first, from:
//   - DefaultConfig
//   - a .glint.yaml, .glint.toml or .glint.json file in the working
//     directory or $HOME/.config/glint (or the file given with --config)
//   - GLINT_* environment variables, e.g. GLINT_TIMEOUT or GLINT_LOG_LEVEL
//   - command line flags bound with BindFlag
package config
