// Package probe captures a still frame from a live stream via FFmpeg and
// classifies the outcome. One Capture call is one attempt: retries, if
// any, belong to the caller. Failures are reported as values, never as
// errors, so a bad stream cannot abort a batch.
package probe
