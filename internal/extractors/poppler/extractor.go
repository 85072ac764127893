// Package poppler extracts per-page text from PDF files. The PDF is
// validated and its page count read with pdfcpu; page text comes from
// the poppler pdftotext binary, one invocation per page so a single
// corrupt page cannot take down the whole document.
package poppler

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/finsight-labs/finsight-cli/internal/core/domain"
	"github.com/finsight-labs/finsight-cli/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// DefaultBinary is the pdftotext executable looked up on PATH.
const DefaultBinary = "pdftotext"

// CommandRunner abstracts subprocess execution so tests can substitute
// a fake pdftotext.
type CommandRunner interface {
	// Run executes the command and returns its stdout.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner runs commands with os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Extractor produces raw per-page text from a source PDF.
type Extractor struct {
	runner    CommandRunner
	binary    string
	validate  func(path string) error
	pageCount func(path string) (int, error)
}

// Option configures the extractor.
type Option func(*Extractor)

// WithRunner substitutes the subprocess runner. Used in tests.
func WithRunner(r CommandRunner) Option {
	return func(e *Extractor) {
		e.runner = r
	}
}

// WithBinary sets the pdftotext executable path.
func WithBinary(path string) Option {
	return func(e *Extractor) {
		e.binary = path
	}
}

// WithValidateFunc substitutes PDF validation. Used in tests.
func WithValidateFunc(f func(path string) error) Option {
	return func(e *Extractor) {
		e.validate = f
	}
}

// WithPageCountFunc substitutes the page counter. Used in tests.
func WithPageCountFunc(f func(path string) (int, error)) Option {
	return func(e *Extractor) {
		e.pageCount = f
	}
}

// New creates a PDF text extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		runner: execRunner{},
		binary: DefaultBinary,
		validate: func(path string) error {
			return api.ValidateFile(path, nil)
		},
		pageCount: api.PageCountFile,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Extract validates the PDF and returns its pages' raw text in page
// order. Unreadable, encrypted or malformed files fail with an
// extraction error; the caller records the document as failed and
// continues the batch.
func (e *Extractor) Extract(ctx context.Context, path string) (*driven.Extraction, error) {
	if err := e.validate(path); err != nil {
		return nil, fmt.Errorf("%w: validating %s: %v", domain.ErrExtraction, path, err)
	}

	pageCount, err := e.pageCount(path)
	if err != nil {
		return nil, fmt.Errorf("%w: page count of %s: %v", domain.ErrExtraction, path, err)
	}

	pages := make([]string, 0, pageCount)
	for page := 1; page <= pageCount; page++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		text, err := e.extractPage(ctx, path, page)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d of %s: %v", domain.ErrExtraction, page, path, err)
		}
		pages = append(pages, text)
	}

	return &driven.Extraction{
		Pages:     pages,
		PageCount: pageCount,
	}, nil
}

// extractPage runs pdftotext for a single page, writing to stdout.
func (e *Extractor) extractPage(ctx context.Context, path string, page int) (string, error) {
	out, err := e.runner.Run(ctx, e.binary,
		"-f", strconv.Itoa(page),
		"-l", strconv.Itoa(page),
		"-enc", "UTF-8",
		path, "-")
	if err != nil {
		return "", err
	}
	return string(out), nil
}
