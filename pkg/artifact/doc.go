// Package artifact stages handler code into the working directory.
//
// Two artifact kinds are supported:
//   - archive: a zip file whose entries are expanded in place; later
//     expansion overwrites existing files silently
//   - source: a single source file copied into the working directory unless a
//     file of the same name is already there (first writer wins)
//
// Any other extension is rejected before anything touches the filesystem.
package artifact
