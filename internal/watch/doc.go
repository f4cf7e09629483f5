// Package watch turns the source folder into a drop box: new media files
// arm a debounce timer and one publish runs once the folder has been quiet.
//
// Only the top level of the folder is watched. Published files are moved
// into the archive subfolder, so watch mode refuses to start unless
// archiving is enabled.
package watch
