// Package report implements the cleaning pipeline for financial report
// text. Raw PDF extraction output is messy: repeated headers and footers
// on every page, standalone page numbers, words broken across line
// wraps, invisible Unicode, and garbled table rows. The normaliser runs
// a fixed sequence of stages that strips this layout noise while
// preserving the report's content.
package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/finsight-labs/finsight-cli/internal/core/domain"
	"github.com/finsight-labs/finsight-cli/internal/core/ports/driven"
	"github.com/finsight-labs/finsight-cli/internal/logger"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// pageMarker separates pages in the working text so page-aware stages
// (header/footer removal) can see page boundaries. Markers are stripped
// by the final stage and never appear in the output.
const pageMarker = "\f"

// Normaliser cleans raw financial report text.
//
// Stages run in a fixed, non-reorderable sequence: later stages assume
// the invariants established by earlier ones (e.g. regex stages assume
// composed Unicode, the blank-line collapse assumes boilerplate lines
// are already gone).
type Normaliser struct {
	headerThreshold float64
}

// Option configures the normaliser.
type Option func(*Normaliser)

// WithHeaderThreshold sets the page-frequency threshold above which a
// recurring line is treated as header/footer boilerplate.
func WithHeaderThreshold(threshold float64) Option {
	return func(n *Normaliser) {
		if threshold > 0 && threshold <= 1 {
			n.headerThreshold = threshold
		}
	}
}

// New creates a report normaliser with the given options.
func New(opts ...Option) *Normaliser {
	n := &Normaliser{
		headerThreshold: domain.DefaultHeaderThreshold,
	}

	for _, opt := range opts {
		opt(n)
	}

	return n
}

// stage is one step of the cleaning pipeline.
type stage struct {
	name  string
	apply func(*state) error
}

// state is the working document threaded through the stages.
type state struct {
	text         string
	linesRemoved int
}

// stages returns the ordered stage list. The order is part of the
// normaliser's contract.
func (n *Normaliser) stages() []stage {
	return []stage{
		{"unicode-nfc", stageUnicodeNFC},
		{"invisible-chars", stageInvisibleChars},
		{"hyphen-repair", stageHyphenRepair},
		{"header-footer", n.stageHeaderFooter},
		{"page-numbers", stagePageNumbers},
		{"blank-lines", stageBlankLines},
		{"intra-line-whitespace", stageIntraLineWhitespace},
		{"table-rows", stageTableRows},
		{"trim", stageTrim},
	}
}

// Normalise runs the cleaning pipeline over the document's pages.
// A stage that fails returns its input unchanged and is recorded as a
// warning; the document always survives.
func (n *Normaliser) Normalise(_ context.Context, pages []string) (*driven.NormaliseResult, error) {
	st := &state{text: strings.Join(pages, "\n"+pageMarker+"\n")}

	rawLen := 0
	for _, p := range pages {
		rawLen += len(p)
	}
	if len(pages) > 1 {
		rawLen += len(pages) - 1 // joining newlines
	}

	var warnings []string
	for _, s := range n.stages() {
		if err := runStage(s, st); err != nil {
			logger.Warn("Cleaning stage skipped: %v", err)
			warnings = append(warnings, err.Error())
		}
	}

	return &driven.NormaliseResult{
		Text: st.text,
		Stats: domain.CleaningStats{
			OriginalChars: rawLen,
			CleanedChars:  len(st.text),
			LinesRemoved:  st.linesRemoved,
		},
		Warnings: warnings,
	}, nil
}

// runStage applies one stage with the degrade-gracefully policy: on
// error or panic the stage's changes are discarded and the document
// continues with the previous stage's output.
func runStage(s stage, st *state) (err error) {
	before := *st

	defer func() {
		if r := recover(); r != nil {
			*st = before
			err = fmt.Errorf("%w: %s: %v", domain.ErrStageFailed, s.name, r)
		}
	}()

	if stageErr := s.apply(st); stageErr != nil {
		*st = before
		return fmt.Errorf("%w: %s: %v", domain.ErrStageFailed, s.name, stageErr)
	}
	return nil
}
