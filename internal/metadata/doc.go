// Package metadata resolves the descriptive fields of a comic.
//
// Each field is taken from the first layer that has a value: the optional
// override document (JSON or YAML), the template table entry for the
// (category, sub-category) pair, then generic placeholders. Resolution is
// total; problems are logged as warnings and never returned.
package metadata
