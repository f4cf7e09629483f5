// Command comicpub publishes AI-generated comic strips to a static site.
//
// `comicpub publish` takes the images waiting in the source folder, stages
// them into the site tree, renders a detail page, appends an entry to the
// JSON index and pushes the result with git. `comicpub watch` does the same
// whenever new images land in the source folder. The remaining commands
// inspect the catalog, the template table and the push journal.
package main
