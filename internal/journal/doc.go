// Package journal records every publish run and its push outcome in SQLite.
//
// A run starts as push_pending (or published when git is disabled) and moves
// to pushed or push_failed. Runs are keyed by project root because one journal
// file serves every site on the machine; `comicpub push retry` reads the
// pending runs for the current root and retries them with a single push.
//
// Schema changes bump schemaVersion in schema.go; delete the database file to
// adopt a new schema.
package journal
