package catalog

import "errors"

var (
	// ErrCorruptCatalog indicates the index document is not valid JSON, lacks
	// the comics array, or holds an id that does not match comic-<digits>.
	ErrCorruptCatalog = errors.New("corrupt catalog")
	// ErrCatalogLocked indicates another process holds the catalog lock.
	ErrCatalogLocked = errors.New("catalog is locked by another publish")
	// ErrInvalidEntry indicates Append rejected an entry.
	ErrInvalidEntry = errors.New("invalid catalog entry")
)
