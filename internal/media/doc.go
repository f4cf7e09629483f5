// Package media enumerates source images and stages them into the site tree.
//
// Enumerate defines batch order: plain lexicographic order of relative paths,
// so a10.png sorts before a2.png. Stager re-encodes PNG and JPEG files with
// disintegration/imaging and copies everything else. Any re-encode failure
// degrades to a byte-for-byte copy.
package media
