// Package daemon ties the store, prober, checker, and refresher together
// behind a single-instance background process with an HTTP API, a
// websocket task feed, and the auto-refresh/auto-check schedulers.
package daemon
