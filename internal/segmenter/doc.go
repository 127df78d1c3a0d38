// Package segmenter cuts a video file into fixed-duration chunks.
//
// Cutting is delegated to ffmpeg in stream-copy mode, so segment boundaries
// land on keyframes and no re-encoding happens. The result is fully
// materialized before Split returns: chunks are collected from the output
// directory and ordered by the numeric index encoded in each filename, never
// by lexical filename comparison.
package segmenter
