// Package gitsync wraps the git CLI for the site working tree: stage
// everything, commit when something changed, push the configured branch.
//
// Failures are returned as *PushError so callers can journal the failing step
// without undoing catalog changes that already happened.
package gitsync
