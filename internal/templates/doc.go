// Package templates holds the category table that supplies default titles,
// topics, sub-topics and joke premises for each (category, sub-category)
// pair. The table ships as an embedded TOML asset and can be replaced by a
// user file via [templates].path without rebuilding.
package templates
