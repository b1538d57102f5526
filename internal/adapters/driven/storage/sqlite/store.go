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
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/recall-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/recall-cli/internal/core/domain"
	"github.com/custodia-labs/recall-cli/internal/core/ports/driven"
	"github.com/custodia-labs/recall-cli/internal/logger"
	"github.com/custodia-labs/recall-cli/internal/vector"
)

// DatabaseFile is the name of the database inside the data directory.
const DatabaseFile = "recall.db"

// Store is the SQLite-backed chunk store.
type Store struct {
	db   *sql.DB
	path string

	// writeMu serialises writes; readers go straight to the WAL.
	writeMu sync.Mutex
}

var _ driven.DocumentStore = (*Store)(nil)

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.recall/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".recall", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)

	// WAL lets readers run while a write is in progress.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

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
			applied_at INTEGER NOT NULL
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
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_chunks.up.sql" -> 1
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

		if err := s.applyMigration(version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

func (s *Store) applyMigration(version int, script string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(script); err != nil {
		return err
	}
	if _, err := tx.Exec(
		"INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)",
		version, time.Now().UnixNano(),
	); err != nil {
		return err
	}
	return tx.Commit()
}

// UpsertFile replaces the chunk set of file.Path in a single transaction.
// A failure part way leaves the previous chunk set untouched.
func (s *Store) UpsertFile(ctx context.Context, file domain.FileInput, chunks []domain.ChunkRecord) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE file_path = ?", file.Path); err != nil {
		return fmt.Errorf("deleting previous chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, file_path, file_name, content, chunk_index, language,
			embedding, created_at, modified_at, file_size)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, c := range chunks {
		created := c.CreatedAt
		if created.IsZero() {
			created = now
		}
		language := c.Language
		if language == "" {
			language = file.Language
		}
		if language == "" {
			language = domain.UndeterminedLanguage
		}

		if _, err := stmt.ExecContext(ctx,
			c.ID, file.Path, file.Name, c.Content, c.ChunkIndex, language,
			vector.EncodeEmbedding(c.Embedding),
			created.UnixNano(), file.ModifiedAt.UnixNano(), file.Size,
		); err != nil {
			return fmt.Errorf("saving chunk %d: %w", c.ChunkIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetFileMetadata returns the stored change-detection snapshot for path.
func (s *Store) GetFileMetadata(ctx context.Context, path string) (*domain.FileMetadata, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT modified_at, file_size FROM chunks
		WHERE file_path = ?
		ORDER BY chunk_index
		LIMIT 1
	`, path)

	var modified, size int64
	if err := row.Scan(&modified, &size); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning file metadata: %w", err)
	}

	return &domain.FileMetadata{
		ModifiedAt: time.Unix(0, modified).UTC(),
		Size:       size,
	}, nil
}

const chunkColumns = `id, file_path, file_name, content, chunk_index, language,
	embedding, created_at, modified_at, file_size`

// FetchAll returns every chunk not excluded by filter.
func (s *Store) FetchAll(ctx context.Context, filter domain.ExclusionFilter) ([]domain.ChunkRecord, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+chunkColumns+" FROM chunks ORDER BY file_path, chunk_index")
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.ChunkRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		if filter.Excludes(c.FilePath) {
			continue
		}
		chunks = append(chunks, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return chunks, nil
}

// GetFileChunks returns the chunks of path ordered by chunk index.
func (s *Store) GetFileChunks(ctx context.Context, path string) ([]domain.ChunkRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+chunkColumns+" FROM chunks WHERE file_path = ? ORDER BY chunk_index", path)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.ChunkRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return chunks, nil
}

// DeleteByPath removes every chunk for path.
func (s *Store) DeleteByPath(ctx context.Context, path string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM chunks WHERE file_path = ?", path); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	return nil
}

// Clear removes every chunk.
func (s *Store) Clear(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM chunks"); err != nil {
		return fmt.Errorf("clearing chunks: %w", err)
	}
	return nil
}

// Stats returns aggregate counts and the on-disk database size.
func (s *Store) Stats(ctx context.Context) (*domain.StoreStats, error) {
	var stats domain.StoreStats

	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT file_path), COALESCE(SUM(LENGTH(CAST(content AS BLOB))), 0)
		FROM chunks
	`)
	if err := row.Scan(&stats.ChunkCount, &stats.FileCount, &stats.TotalContentBytes); err != nil {
		return nil, fmt.Errorf("scanning stats: %w", err)
	}

	var pageCount, pageSize int64
	if err := s.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err != nil {
		return nil, fmt.Errorf("reading page count: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize); err != nil {
		return nil, fmt.Errorf("reading page size: %w", err)
	}
	stats.DatabaseBytes = pageCount * pageSize

	return &stats, nil
}

// ListFiles returns per-file aggregates ordered by path. A file's language is
// the most frequent determined chunk language, as in domain.DominantLanguage.
func (s *Store) ListFiles(ctx context.Context) ([]domain.FileSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT MIN(f.id), f.file_path, MAX(f.file_name),
			COALESCE((
				SELECT l.language FROM chunks l
				WHERE l.file_path = f.file_path AND l.language NOT IN ('', ?)
				GROUP BY l.language
				ORDER BY COUNT(*) DESC, l.language
				LIMIT 1
			), ?),
			COUNT(*), COALESCE(SUM(LENGTH(CAST(f.content AS BLOB))), 0)
		FROM chunks f
		GROUP BY f.file_path
		ORDER BY f.file_path
	`, domain.UndeterminedLanguage, domain.UndeterminedLanguage)
	if err != nil {
		return nil, fmt.Errorf("querying files: %w", err)
	}
	defer rows.Close()

	var files []domain.FileSummary //nolint:prealloc // size unknown from query
	for rows.Next() {
		var f domain.FileSummary
		if err := rows.Scan(&f.MinChunkID, &f.Path, &f.Name, &f.Language, &f.ChunkCount, &f.ContentBytes); err != nil {
			return nil, fmt.Errorf("scanning file summary: %w", err)
		}
		files = append(files, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating files: %w", err)
	}

	return files, nil
}

// scanChunk scans one chunk row. A malformed embedding blob is logged and
// decoded as a nil vector so it scores zero instead of failing the scan.
func scanChunk(rows *sql.Rows) (domain.ChunkRecord, error) {
	var (
		c                 domain.ChunkRecord
		blob              []byte
		created, modified int64
	)
	if err := rows.Scan(&c.ID, &c.FilePath, &c.FileName, &c.Content, &c.ChunkIndex, &c.Language,
		&blob, &created, &modified, &c.FileSize); err != nil {
		return c, fmt.Errorf("scanning chunk: %w", err)
	}

	embedding, err := vector.DecodeEmbedding(blob)
	if err != nil {
		logger.Warn("chunk %s of %s: %v", c.ID, c.FilePath, err)
		embedding = nil
	}
	c.Embedding = embedding
	c.CreatedAt = time.Unix(0, created).UTC()
	c.ModifiedAt = time.Unix(0, modified).UTC()

	return c, nil
}
