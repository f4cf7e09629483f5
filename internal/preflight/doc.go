// Package preflight runs the checks behind `comicpub doctor`:
// directories, catalog, template table, journal, git repository and the
// external binaries comicpub needs.
package preflight
