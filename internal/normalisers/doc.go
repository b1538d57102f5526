// Package normalisers turns files on disk into plain text for chunking.
//
// Each subpackage implements driven.Extractor for a family of file
// extensions. Registry picks the highest-priority extractor for a path.
package normalisers
