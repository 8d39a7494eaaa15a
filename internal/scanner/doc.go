// Package scanner lists a source directory and buckets its files by
// extension.
//
// Scanning is shallow: only direct children are considered and
// subdirectories are dropped rather than treated as extensionless files. The
// resulting Catalog is transient and rebuilt on every scan; group order
// follows the sorted directory listing so repeated scans of the same tree
// produce identical output.
package scanner
