// Package history records finished engine runs in a SQLite database under the
// configured state directory.
//
// Each run row carries its outcome and item counts; per-stage visit and busy
// totals live in a child table. The store is a reporting log only: nothing is
// resumed or replayed from it. Open creates the schema on first use and
// refuses databases written by a different schema version.
package history
