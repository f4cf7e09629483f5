// Package render builds the static HTML detail page for one comic with
// html/template. The layout is embedded in the binary.
package render
