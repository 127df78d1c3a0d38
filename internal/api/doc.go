// Package api defines wire-format types, converters, and the HTTP handler
// for the ingestion API. It translates internal manifest models into
// transport-friendly DTOs so web consumers never couple to internal types.
//
// # Key Types
//
// EpisodeView: transport representation of a manifest row with ordered video
// links and image links.
//
// EpisodeService: read-only episode queries returning API DTOs.
//
// Handler: httprouter-backed http.Handler exposing ingestion and episode
// lookup routes with permissive CORS for browser upload forms.
//
// # Design Notes
//
// DTOs use camelCase JSON tags for JavaScript/TypeScript consumers. Statuses
// are exposed as lowercase strings. Timestamps use RFC3339 with milliseconds.
// Ingestion failures map to HTTP statuses by failure kind: invalid requests
// are 400, an episode key already being ingested is 409, everything else is
// a 500 with the manifest left in a terminal state.
package api
