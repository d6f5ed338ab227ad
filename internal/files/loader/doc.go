// Package loader decodes saved object template files.
//
// A path ending in ".ndjson" is read as newline-delimited JSON, one saved
// object per line; any other path must hold exactly one JSON object. Numbers
// are kept as json.Number so they round-trip without precision loss.
package loader
