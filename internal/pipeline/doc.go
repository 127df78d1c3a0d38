// Package pipeline orchestrates one episode ingestion from request to
// manifest.
//
// A run moves through validation, manifest creation, staging, segmentation,
// upload, and finalization. Failures at any point finalize the manifest as
// failed and report which stage stopped the run and how many artifacts had
// already committed; links recorded before a failure are kept, never rolled
// back. Scratch storage is removed on every exit path, including
// cancellation.
package pipeline
