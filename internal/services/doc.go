// Package services holds the context helpers shared by the publish pipeline,
// the watcher and the CLI.
//
// Publish code stamps the comic id, journal run id, stage name and a
// correlation id onto the context so logging.WithContext can tag every line
// emitted for one publish without threading loggers through each helper.
package services
