// Package deps reports whether the external binaries comicpub shells out to
// are installed, with an optional version check for `comicpub doctor`.
package deps
