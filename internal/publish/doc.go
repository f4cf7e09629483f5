// Package publish orchestrates one publish: enumerate source media, allocate
// the next id under the catalog lock, resolve metadata, stage images, render
// the detail page, append the catalog entry, then archive, journal, push and
// notify.
//
// Everything up to the catalog append is all-or-nothing. Everything after it
// is best effort; a failed push is journaled and can be retried with
// RetryPushes.
package publish
