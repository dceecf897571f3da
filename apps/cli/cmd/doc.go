// Package cmd implements the glint CLI commands using Cobra.
//
// Available commands:
//   - run: Execute the requests of a collection
//   - validate: Check collections without executing them
//   - list: Display the requests defined in collections
//   - history: Show requests recorded in the run journal
//   - import curl: Convert curl commands into a collection
//   - init: Create a config file and an example collection
//   - version: Show glint version information
//
// Configuration comes from .glint.{yaml,toml,json}, GLINT_* environment
// variables and flags, in increasing precedence.
package cmd
