// Package preflight provides readiness checks for the filesystem paths
// and external binaries Aerial depends on.
//
// The daemon runs RunAll once at startup and logs any failure; the CLI
// status command reuses CheckSystemDeps to display binary availability.
package preflight
