// Package checker runs deep stream checks over sets of channels. The
// batch runner bounds how many probes execute at once, throttles progress
// reporting, isolates per-probe failures, and commits the full outcome
// set to storage in a single transaction when every probe has finished.
package checker
