// Package driving provides interfaces for user-facing adapters
// (primary/inbound ports). The HTTP API, CLI, MCP server, and directory
// watcher all drive the pipeline through these interfaces.
package driving
