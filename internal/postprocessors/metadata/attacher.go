// Package metadata derives document provenance from the source path and
// stamps it onto every chunk. The input tree follows a directory
// convention (region/report-type/company/company_year_type.pdf); paths
// outside the convention mark the fields unknown instead of failing the
// document.
package metadata

import (
	"context"
	"path"
	"path/filepath"
	"strings"

	"github.com/finsight-labs/finsight-cli/internal/core/domain"
	"github.com/finsight-labs/finsight-cli/internal/core/ports/driven"
	"github.com/finsight-labs/finsight-cli/internal/logger"
)

// Ensure Attacher implements the interface.
var _ driven.PostProcessor = (*Attacher)(nil)

// Attacher resolves a document's identity from its relative path and
// copies it onto each chunk, together with the deterministic chunk ID.
// It holds no state; identity resolution is a pure function of the path.
type Attacher struct{}

// New creates a metadata attacher.
func New() *Attacher {
	return &Attacher{}
}

// Name returns the processor name.
func (a *Attacher) Name() string {
	return "metadata"
}

// Process resolves the document identity and stamps every chunk with it.
// An unmatched path convention is recorded as a document warning, never
// an error.
func (a *Attacher) Process(_ context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, domain.ErrInvalidInput
	}

	if !doc.Identity.Resolved() {
		identity, ok := ParseIdentity(doc.RelPath)
		doc.Identity = identity
		if !ok {
			logger.Warn("Path convention not matched, identity unknown: %s", doc.RelPath)
			doc.Warnings = append(doc.Warnings,
				"path convention not matched: "+doc.RelPath)
		}
	}

	for i := range chunks {
		chunks[i].ID = domain.ChunkID(doc.Identity, chunks[i].Index)
		chunks[i].Company = doc.Identity.Company
		chunks[i].Region = doc.Identity.Region
		chunks[i].Year = doc.Identity.Year
	}

	return chunks, nil
}

// ParseIdentity derives company, region, report type and year from a
// path relative to the input root. The expected layout is
// region/report-type/company/filename, with a four-digit year somewhere
// in the underscore-separated filename stem. Fields that cannot be
// derived are set to the unknown placeholder; ok is false if any field
// is unknown.
func ParseIdentity(relPath string) (domain.Identity, bool) {
	identity := domain.UnknownIdentity()
	if relPath == "" {
		return identity, false
	}

	parts := strings.Split(filepath.ToSlash(relPath), "/")
	if len(parts) >= 4 {
		identity.Region = parts[0]
		identity.ReportType = parts[1]
		identity.Company = parts[2]
	}

	// Year comes from the filename stem, e.g. nvidia_2024_annual.pdf.
	stem := strings.TrimSuffix(parts[len(parts)-1], path.Ext(parts[len(parts)-1]))
	for _, part := range strings.Split(stem, "_") {
		if isYear(part) {
			identity.Year = part
			break
		}
	}

	ok := identity.Resolved() && identity.Year != domain.IdentityUnknown
	return identity, ok
}

// isYear reports whether a filename token is a four-digit year.
func isYear(tok string) bool {
	if len(tok) != 4 {
		return false
	}
	for _, r := range tok {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
