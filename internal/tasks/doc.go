// Package tasks carries progress reporting for long-running background
// operations. A Reporter is a fire-and-forget sink: implementations must
// never block the caller or surface errors into its control flow. The
// store-backed reporter persists each update and republishes it on an
// in-process hub feeding live observers such as the websocket feed.
package tasks
