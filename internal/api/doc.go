// Package api defines the JSON payloads exchanged over the daemon HTTP
// API and a client for them, shared by the daemon handlers and the CLI.
package api
