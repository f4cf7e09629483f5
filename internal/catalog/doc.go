// Package catalog maintains comic-index.json, the append-only list of
// published comics.
//
// Store allocates ids by scanning every entry for the largest numeric suffix,
// appends one entry per publish, and rewrites the whole document atomically
// (temp file plus rename). A gofrs/flock lock serializes publishes across
// processes. ExportFrontend writes the reduced projection the front page
// loads.
package catalog
