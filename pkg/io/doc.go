// Package io reads and writes the JSON documents curator keeps on disk:
// catalog records and the refresh-state document.
//
// # Overview
//
// Every document is a single JSON value per file. Output is indented with
// two spaces and ends with a newline, so files stay diff-friendly when they
// are checked into a content repository next to hand-authored records.
//
// # Atomic Writes
//
// [ExportJSON] and [WriteFileAtomic] never leave a half-written file behind.
// Data is written to a temporary file in the destination directory, synced,
// and renamed over the target. A crash mid-run loses at most the document
// being written, never a previously saved one.
//
// # Reading
//
// [ReadJSON] decodes from any reader; [ImportJSON] opens a file first and
// wraps failures with the path. Both reject trailing data after the first
// JSON value.
package io
