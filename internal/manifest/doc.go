// Package manifest persists episode records in SQLite.
//
// One record exists per ingestion. The record is created with empty link
// fields before any upload begins; link fields are appended one at a time as
// artifacts land in object storage, so a crash after segment k leaves exactly
// k links recorded. Status moves monotonically from pending through partial
// to complete or failed and never backward. All link appends are single
// UPDATE statements, so concurrent appends against the same record serialize
// inside SQLite rather than racing in application code.
package manifest
