// Package history records finished delivery runs in SQLite.
//
// Each run stores its source, output, pattern, and totals, plus one row per
// catalogued file with the file's outcome (copied, failed, skipped, or
// planned for dry runs). The database lives in the state directory and is
// append-only apart from explicit clears. Schema changes bump the version
// in schema.go; users delete the database to adopt the new schema.
package history
