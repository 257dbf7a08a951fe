// Package sqlite provides the document metadata store backed by SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/agora-labs/agora-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/agora-labs/agora-cli/internal/core/domain"
	"github.com/agora-labs/agora-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.MetadataStore = (*Store)(nil)

// Store tracks document identity and processing status in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (or creates) the metadata database under dataDir.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "metadata.db")

	// WAL mode for better concurrency between CLI invocations.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// SaveDocument stores or updates a document record.
func (s *Store) SaveDocument(ctx context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return domain.ErrInvalidInput
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, filename, content_hash, status, error, section_count, embedding_model, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			filename = excluded.filename,
			content_hash = excluded.content_hash,
			status = excluded.status,
			error = excluded.error,
			section_count = excluded.section_count,
			embedding_model = excluded.embedding_model,
			updated_at = excluded.updated_at
	`, doc.ID, doc.Filename, doc.ContentHash, string(doc.Status), doc.Error,
		doc.SectionCount, doc.EmbeddingModel, doc.CreatedAt.UTC(), doc.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, filename, content_hash, status, error, section_count, embedding_model, created_at, updated_at
		FROM documents WHERE id = ?
	`, id)
	return scanDocument(row)
}

// GetByContentHash retrieves the non-deleted document with the given hash.
func (s *Store) GetByContentHash(ctx context.Context, hash string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, filename, content_hash, status, error, section_count, embedding_model, created_at, updated_at
		FROM documents WHERE content_hash = ? AND status != ?
		ORDER BY created_at DESC LIMIT 1
	`, hash, string(domain.StatusDeleted))
	return scanDocument(row)
}

// ListDocuments returns all non-deleted documents, newest first.
func (s *Store) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, filename, content_hash, status, error, section_count, embedding_model, created_at, updated_at
		FROM documents WHERE status != ?
		ORDER BY created_at DESC
	`, string(domain.StatusDeleted))
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		var doc domain.Document
		var status string
		var createdAt, updatedAt time.Time
		if err := rows.Scan(&doc.ID, &doc.Filename, &doc.ContentHash, &status, &doc.Error,
			&doc.SectionCount, &doc.EmbeddingModel, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		doc.Status = domain.DocumentStatus(status)
		doc.CreatedAt = createdAt
		doc.UpdatedAt = updatedAt
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// SetStatus records a status transition.
func (s *Store) SetStatus(ctx context.Context, id string, status domain.DocumentStatus, errMsg string) error {
	if !status.Valid() {
		return fmt.Errorf("%w: status %q", domain.ErrInvalidInput, status)
	}
	if status != domain.StatusFailed {
		errMsg = ""
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE documents SET status = ?, error = ?, updated_at = ? WHERE id = ?
	`, string(status), errMsg, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("updating status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanDocument(row *sql.Row) (*domain.Document, error) {
	var doc domain.Document
	var status string
	var createdAt, updatedAt time.Time
	err := row.Scan(&doc.ID, &doc.Filename, &doc.ContentHash, &status, &doc.Error,
		&doc.SectionCount, &doc.EmbeddingModel, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	doc.Status = domain.DocumentStatus(status)
	doc.CreatedAt = createdAt
	doc.UpdatedAt = updatedAt
	return &doc, nil
}
