// Package filesystem adapts the local disk for indexing: file stats,
// classification, directory walking with .gitignore support, and change
// notification through fsnotify.
package filesystem
