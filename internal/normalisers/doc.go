// Package normalisers provides implementations of the Normaliser
// interface. Each normaliser knows how to turn raw extracted page text
// of a document class into clean, chunkable text.
package normalisers
