// Package driving provides interfaces for primary/inbound ports.
// The CLI, TUI and MCP adapters drive the application through these.
package driving
