package publish

import "errors"

// ErrNoMediaFound aborts a publish before anything is written.
var ErrNoMediaFound = errors.New("no source media found")

// ErrJournalUnavailable is returned by operations that need the push journal
// when the Publisher was built without one.
var ErrJournalUnavailable = errors.New("push journal not configured")

// ErrGitDisabled is returned by RetryPushes when git is turned off.
var ErrGitDisabled = errors.New("git is disabled in config")
