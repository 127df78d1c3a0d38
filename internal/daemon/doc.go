// Package daemon coordinates the long-running ingestion service: it enforces
// single-instance execution with a file lock, sweeps stale scratch
// directories left behind by crashed runs, and owns the HTTP API server
// lifecycle.
package daemon
