// Package notifications delivers publish events to ntfy.
//
// The topic URL comes from [notifications].ntfy_topic (or COMICPUB_NTFY_TOPIC)
// and the service degrades to a no-op when it is empty. Per-event toggles in
// the same section silence individual messages. Callers depend only on the
// Service interface.
package notifications
