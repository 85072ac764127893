// Package chunker provides a boundary-aware sliding-window chunking
// processor. The window advances by size minus overlap; each cut point
// is snapped backward to the nearest natural text boundary so chunks
// avoid severing sentences and paragraphs.
package chunker

import (
	"context"
	"fmt"
	"strings"

	"github.com/finsight-labs/finsight-cli/internal/core/domain"
	"github.com/finsight-labs/finsight-cli/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// Processor splits normalised document text into overlapping chunks.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize      int
	overlap        int
	boundaryWindow float64
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the target chunk size in bytes.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithOverlap sets the overlap between consecutive chunks in bytes.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// WithBoundaryWindow sets the fraction of the window span, measured
// back from the naive cut point, searched for a natural boundary.
func WithBoundaryWindow(fraction float64) Option {
	return func(p *Processor) {
		p.boundaryWindow = fraction
	}
}

// New creates a chunker processor. An invalid size/overlap relationship
// is a configuration error reported here, before any document is
// processed.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		chunkSize:      domain.DefaultChunkSize,
		overlap:        domain.DefaultChunkOverlap,
		boundaryWindow: domain.DefaultBoundaryWindow,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidConfig, p.chunkSize)
	}
	if p.overlap < 0 || p.overlap >= p.chunkSize {
		return nil, fmt.Errorf("%w: overlap must satisfy 0 <= overlap < chunk size, got overlap %d size %d",
			domain.ErrInvalidConfig, p.overlap, p.chunkSize)
	}
	if p.boundaryWindow <= 0 || p.boundaryWindow > 1 {
		return nil, fmt.Errorf("%w: boundary window must be in (0, 1], got %g",
			domain.ErrInvalidConfig, p.boundaryWindow)
	}

	return p, nil
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits the document's normalised text into chunks.
// Input chunks are ignored; this processor creates new chunks.
//
// Chunks are emitted in strictly increasing start order with contiguous
// 0-based indices. Every byte of the text is covered: chunk text is the
// exact substring [Start, End), never trimmed, so the union of spans
// reconstructs the document.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, domain.ErrInvalidInput
	}

	text := doc.Text
	textLen := len(text)
	if textLen == 0 {
		// Empty text produces no chunks; not an error.
		return nil, nil
	}

	step := p.chunkSize - p.overlap
	chunks := make([]domain.Chunk, 0, textLen/step+1)

	start := 0
	for start < textLen {
		naiveEnd := start + p.chunkSize
		if naiveEnd > textLen {
			naiveEnd = textLen
		}

		end := naiveEnd
		if naiveEnd < textLen {
			if snapped, ok := p.snapBoundary(text, start, naiveEnd); ok {
				end = snapped
			}
			// Forward progress guarantee: the next start is end-overlap,
			// so a snap that lands at or before start+overlap would stall
			// or regress the window. Fall back to the naive end.
			if end <= start+p.overlap {
				end = naiveEnd
			}
		}

		chunks = append(chunks, domain.Chunk{
			Index:  len(chunks),
			Start:  start,
			End:    end,
			Text:   text[start:end],
			Length: end - start,
		})

		if end == textLen {
			break
		}
		start = end - p.overlap
	}

	return chunks, nil
}

// snapBoundary searches backward from the naive cut point, within the
// configured fraction of the window span, for a natural boundary. In
// priority order: a paragraph break, a sentence terminator followed by
// whitespace, a plain line break. Returns the position just after the
// boundary and whether one was found.
func (p *Processor) snapBoundary(text string, start, naiveEnd int) (int, bool) {
	span := naiveEnd - start
	searchStart := naiveEnd - int(float64(span)*p.boundaryWindow)
	if searchStart < start {
		searchStart = start
	}

	window := text[searchStart:naiveEnd]

	if idx := strings.LastIndex(window, "\n\n"); idx != -1 {
		// Cut after the first newline, keeping one to close the paragraph.
		return searchStart + idx + 1, true
	}

	if idx := lastSentenceEnd(window); idx != -1 {
		return searchStart + idx, true
	}

	if idx := strings.LastIndexByte(window, '\n'); idx != -1 {
		return searchStart + idx + 1, true
	}

	return 0, false
}

// lastSentenceEnd returns the position just after the last sentence
// terminator that is followed by whitespace, or -1.
func lastSentenceEnd(window string) int {
	for i := len(window) - 2; i >= 0; i-- {
		switch window[i] {
		case '.', '!', '?':
			if window[i+1] == ' ' || window[i+1] == '\n' {
				return i + 2
			}
		}
	}
	return -1
}
