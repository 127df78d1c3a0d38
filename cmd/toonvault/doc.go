// Package main hosts the toonvault CLI entrypoint and command graph.
//
// The Cobra-based command tree covers serving the ingestion daemon in the
// foreground, ingesting local episode files, inspecting episode manifests,
// configuration scaffolding, and notification checks. It centralizes
// configuration resolution so subcommands can focus on user experience
// instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
