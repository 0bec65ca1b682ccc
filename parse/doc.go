// Package parse recovers canonical measurement sections from uploaded
// instrumentation log files.
//
// Two parsers produce the same core.MeasurementSection shape:
//   - JSONParser handles structured input (a single object or an array).
//   - TextParser handles semi-structured plain text with no formal grammar.
//
// Parser selection is JSON-first: JSONParser reports ErrNotJSON when the
// input is not valid JSON, and the caller falls back to TextParser. Within a
// file, each block or array entry is parsed independently; a malformed block
// is logged and skipped without aborting its siblings.
package parse
