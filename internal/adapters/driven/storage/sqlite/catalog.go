package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/finsight-labs/finsight-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/finsight-labs/finsight-cli/internal/core/domain"
	"github.com/finsight-labs/finsight-cli/internal/core/ports/driven"
)

// Ensure Catalog implements the interface.
var _ driven.CatalogStore = (*Catalog)(nil)

// Catalog is the SQLite-backed chunk catalog.
type Catalog struct {
	db   *sql.DB
	path string
}

// NewCatalog opens (or creates) the catalog database at the given path.
func NewCatalog(path string) (*Catalog, error) {
	if path == "" {
		return nil, fmt.Errorf("catalog path is required")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating catalog directory: %w", err)
	}

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	c := &Catalog{
		db:   db,
		path: path,
	}

	if err := c.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return c, nil
}

// Close closes the database connection.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Path returns the database file path.
func (c *Catalog) Path() string {
	return c.path
}

// SaveDocument upserts a document keyed on its source path and replaces
// its chunk rows. Keying on the path makes reruns replace rows instead
// of appending duplicates.
func (c *Catalog) SaveDocument(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error {
	if doc == nil {
		return domain.ErrInvalidInput
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (path, rel_path, company, region, year, report_type,
			pages, original_chars, cleaned_chars, lines_removed, chunk_count, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			rel_path = excluded.rel_path,
			company = excluded.company,
			region = excluded.region,
			year = excluded.year,
			report_type = excluded.report_type,
			pages = excluded.pages,
			original_chars = excluded.original_chars,
			cleaned_chars = excluded.cleaned_chars,
			lines_removed = excluded.lines_removed,
			chunk_count = excluded.chunk_count,
			ingested_at = excluded.ingested_at
	`, doc.Path, doc.RelPath, doc.Identity.Company, doc.Identity.Region,
		doc.Identity.Year, doc.Identity.ReportType, doc.PageCount,
		doc.Stats.OriginalChars, doc.Stats.CleanedChars, doc.Stats.LinesRemoved,
		len(chunks), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}

	// Replace, not merge: a rerun that produces fewer chunks must not
	// leave stale rows behind.
	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_path = ?`, doc.Path); err != nil {
		return fmt.Errorf("clearing chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_path, chunk_index, start_char, end_char,
			char_count, content, company, region, year)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		_, err := stmt.ExecContext(ctx, chunk.ID, doc.Path, chunk.Index,
			chunk.Start, chunk.End, chunk.Length, chunk.Text,
			chunk.Company, chunk.Region, chunk.Year)
		if err != nil {
			return fmt.Errorf("saving chunk %d: %w", chunk.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// SaveRun records a completed ingestion run.
func (c *Catalog) SaveRun(ctx context.Context, run *domain.IngestionRun) error {
	if run == nil {
		return domain.ErrInvalidInput
	}

	_, err := c.db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, elapsed_ms, documents, processed,
			failed, total_pages, total_chunks)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			elapsed_ms = excluded.elapsed_ms,
			documents = excluded.documents,
			processed = excluded.processed,
			failed = excluded.failed,
			total_pages = excluded.total_pages,
			total_chunks = excluded.total_chunks
	`, run.ID, run.StartedAt.UTC(), run.Elapsed.Milliseconds(),
		len(run.Documents), run.Processed(), run.FailedCount(),
		run.TotalPages(), run.TotalChunks())
	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	return nil
}

// CountChunks returns the number of catalogued chunks for a company and
// year. Empty arguments match everything.
func (c *Catalog) CountChunks(ctx context.Context, company, year string) (int, error) {
	var count int
	err := c.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM chunks
		WHERE (? = '' OR company = ?) AND (? = '' OR year = ?)
	`, company, company, year, year).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return count, nil
}

// migrate runs all pending migrations.
func (c *Catalog) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := c.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := c.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := c.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := c.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}
