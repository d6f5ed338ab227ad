// Package filesystem provides a small filesystem abstraction for reading
// template files, with an OS implementation and an in-memory one for tests.
package filesystem
