// Package cmd implements the command-line interface for the chatwire session
// client. It provides a hierarchical command structure for connecting to a
// messaging server and observing a live session.
//
// The package is organized into several subpackages:
//
//   - ping: Commands for measuring session round-trip latency
//   - watch: Commands for streaming unsolicited server events
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See chatwire -help for a list of all commands.
package cmd
