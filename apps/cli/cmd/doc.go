// Package cmd implements the resource CLI commands using Cobra.
//
// Available commands:
//   - send: Dispatch the request described by a YAML profile
//   - bench: Dispatch a profile repeatedly and report latency statistics
//   - history: List exchanges recorded with send --record
//   - version: Show resource version information
//
// The send command supports response field extraction, JSON Schema
// validation, SQLite exchange recording, and watch mode for development
// workflows.
package cmd
