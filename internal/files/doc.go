// Package files groups file access for saved object templates:
//   - filesystem: Filesystem abstraction (OS and in-memory)
//   - loader: JSON / NDJSON template decoding
package files
