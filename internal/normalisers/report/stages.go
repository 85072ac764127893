package report

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// invisibleReplacer substitutes non-breaking spaces and strips invisible
// characters that PDF extraction leaks into the text. Bullet glyph
// variants are folded to a single form. Meaningful symbols (currency,
// section marks) are kept. Line endings are standardised to \n so every
// later stage can assume Unix line breaks.
var invisibleReplacer = strings.NewReplacer(
	"\u00a0", " ", // non-breaking space
	"\u2007", " ", // figure space
	"\u202f", " ", // narrow non-breaking space
	"\u00ad", "", // soft hyphen
	"\u200b", "", // zero-width space
	"\u200c", "", // zero-width non-joiner
	"\u200d", "", // zero-width joiner
	"\ufeff", "", // byte order mark
	"\u0000", "", // null byte
	"\ufffd", "", // replacement character
	"\u25cf", "\u2022", // bullet variants fold to U+2022
	"\u25aa", "\u2022",
	"\u25b8", "\u2022",
	"\u25ba", "\u2022",
	"\u25c6", "\u2022",
	"\u25c7", "\u2022",
	"\u25cb", "\u2022",
	"\r\n", "\n",
	"\r", "\n",
)

var (
	// A word broken across a line wrap: word character, hyphen,
	// optional horizontal whitespace, newline, optional horizontal
	// whitespace, word character. The hyphen and the break go away.
	reHyphenBreak = regexp.MustCompile(`([\pL\pN])-[ \t]*\n[ \t]*([\pL\pN])`)

	// A line that is only a page number: optional dashes, optional
	// "page", 1-4 digits, optional "of N".
	rePageNumberLine = regexp.MustCompile(`(?mi)^[ \t]*[-–—]*[ \t]*(?:page[ \t]*)?\d{1,4}(?:[ \t]*of[ \t]*\d+)?[ \t]*[-–—]*[ \t]*$`)

	// Three or more consecutive newlines.
	reExcessNewlines = regexp.MustCompile(`\n{3,}`)

	// Runs of horizontal whitespace within a line.
	reHorizontalRuns = regexp.MustCompile(`[ \t]{2,}`)
)

// stageUnicodeNFC canonically composes the text. Must run first: the
// regex stages match composed characters, so a visually-single glyph is
// one character.
func stageUnicodeNFC(st *state) error {
	st.text = norm.NFC.String(st.text)
	return nil
}

// stageInvisibleChars substitutes invisible whitespace and strips
// control noise.
func stageInvisibleChars(st *state) error {
	st.text = invisibleReplacer.Replace(st.text)
	return nil
}

// stageHyphenRepair rejoins words broken across line wraps.
func stageHyphenRepair(st *state) error {
	st.text = reHyphenBreak.ReplaceAllString(st.text, "$1$2")
	return nil
}

// stageHeaderFooter removes lines that recur identically on more than
// headerThreshold of the document's pages. Detection is per-document;
// a line that repeats across one report's pages is boilerplate there
// even if it never appears in any other report.
func (n *Normaliser) stageHeaderFooter(st *state) error {
	pages := strings.Split(st.text, "\n"+pageMarker+"\n")
	if len(pages) < 2 {
		return nil // single page: nothing can recur across pages
	}

	// Count on how many pages each trimmed line appears (once per page).
	occurrences := make(map[string]int)
	for _, page := range pages {
		seen := make(map[string]bool)
		for _, line := range strings.Split(page, "\n") {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || seen[trimmed] {
				continue
			}
			seen[trimmed] = true
			occurrences[trimmed]++
		}
	}

	minPages := int(n.headerThreshold*float64(len(pages))) + 1
	if minPages < 2 {
		minPages = 2
	}

	boilerplate := make(map[string]bool)
	for line, count := range occurrences {
		if count >= minPages {
			boilerplate[line] = true
		}
	}
	if len(boilerplate) == 0 {
		return nil
	}

	lines := strings.Split(st.text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if boilerplate[strings.TrimSpace(line)] {
			st.linesRemoved++
			continue
		}
		kept = append(kept, line)
	}
	st.text = strings.Join(kept, "\n")
	return nil
}

// stagePageNumbers deletes standalone page-number lines.
func stagePageNumbers(st *state) error {
	st.linesRemoved += len(rePageNumberLine.FindAllStringIndex(st.text, -1))
	st.text = rePageNumberLine.ReplaceAllString(st.text, "")
	return nil
}

// stageBlankLines collapses three or more consecutive newlines to
// exactly two, preserving paragraph separation.
func stageBlankLines(st *state) error {
	st.text = reExcessNewlines.ReplaceAllString(st.text, "\n\n")
	return nil
}

// stageIntraLineWhitespace collapses runs of horizontal whitespace to a
// single space without touching newlines.
func stageIntraLineWhitespace(st *state) error {
	st.text = strings.ReplaceAll(st.text, "\t", " ")
	st.text = reHorizontalRuns.ReplaceAllString(st.text, " ")
	return nil
}

// stageTableRows whitespace-normalises lines that look like garbled
// table columns: many isolated short or numeric-only tokens. Best
// effort; table semantics are not reconstructed.
func stageTableRows(st *state) error {
	lines := strings.Split(st.text, "\n")
	for i, line := range lines {
		if looksLikeTableRow(line) {
			lines[i] = strings.Join(strings.Fields(line), " ")
		}
	}
	st.text = strings.Join(lines, "\n")
	return nil
}

// stageTrim strips the page markers, trims every line and the whole
// document, and tidies blank runs the marker removal may have exposed.
func stageTrim(st *state) error {
	lines := strings.Split(st.text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.TrimSpace(line) == pageMarker {
			continue
		}
		kept = append(kept, strings.TrimSpace(line))
	}
	st.text = strings.Join(kept, "\n")
	st.text = reExcessNewlines.ReplaceAllString(st.text, "\n\n")
	st.text = strings.TrimSpace(st.text)
	return nil
}

// looksLikeTableRow reports whether a line has an abnormally high ratio
// of short or numeric-only tokens, the signature of a table row whose
// column alignment was lost during extraction.
func looksLikeTableRow(line string) bool {
	fields := strings.Fields(line)
	if len(fields) < 6 {
		return false
	}

	suspect := 0
	for _, f := range fields {
		if len(f) <= 2 || isNumericToken(f) {
			suspect++
		}
	}
	return float64(suspect)/float64(len(fields)) >= 0.6
}

// isNumericToken reports whether a token is numeric once common
// financial decoration ($, %, commas, parentheses) is ignored.
func isNumericToken(tok string) bool {
	digits := 0
	for _, r := range tok {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case strings.ContainsRune("$€£₹%,.()-+", r):
			// decoration
		default:
			return false
		}
	}
	return digits > 0
}
