// Package file provides a TOML file-based configuration store.
// Configuration lives in a single config.toml; nested tables are
// flattened to dot-notation keys so callers read "ingest.chunk_size"
// rather than walking maps.
package file
