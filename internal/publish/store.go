package publish

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"fusionkit/internal/config"
)

// Store manages published file records backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

const fileColumns = "id, code, path, published_file_type, version_number, entity, created_at"

// Open initializes or connects to the publish registry configured in cfg.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.Paths.PublishDB)
}

// OpenPath opens the registry database at dbPath.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Add inserts a publish and returns the stored record.
func (s *Store) Add(ctx context.Context, file File) (*File, error) {
	if err := file.normalize(); err != nil {
		return nil, err
	}
	created := time.Now().UTC()
	if !file.CreatedAt.IsZero() {
		created = file.CreatedAt.UTC()
	}

	res, err := s.execWithRetry(ctx,
		`INSERT INTO published_files (
            code, path, published_file_type, version_number, entity, created_at
        ) VALUES (?, ?, ?, ?, ?, ?)`,
		file.Code,
		file.Path,
		file.PublishedFileType,
		file.VersionNumber,
		nullableString(file.Entity),
		created.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert publish: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.Get(ctx, id)
}

// Get fetches a publish by id. ErrNotFound is returned when it does not exist.
func (s *Store) Get(ctx context.Context, id int64) (*File, error) {
	ctx = ensureContext(ctx)
	var file *File
	err := retryOnBusy(ctx, func() error {
		row := s.db.QueryRowContext(ctx, "SELECT "+fileColumns+" FROM published_files WHERE id = ?", id)
		var scanErr error
		file, scanErr = scanFile(row)
		return scanErr
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get publish: %w", err)
	}
	return file, nil
}

// List returns publishes matching filter, newest version first within a code.
func (s *Store) List(ctx context.Context, filter Filter) ([]*File, error) {
	ctx = ensureContext(ctx)
	var (
		clauses []string
		args    []any
	)
	if filter.PublishedFileType != "" {
		clauses = append(clauses, "published_file_type = ?")
		args = append(args, filter.PublishedFileType)
	}
	if filter.Entity != "" {
		clauses = append(clauses, "entity = ?")
		args = append(args, filter.Entity)
	}
	query := "SELECT " + fileColumns + " FROM published_files"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY code, version_number DESC, id"

	var files []*File
	err := retryOnBusy(ctx, func() error {
		files = files[:0]
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			file, err := scanFile(rows)
			if err != nil {
				return err
			}
			files = append(files, file)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list publishes: %w", err)
	}
	return files, nil
}

// Remove deletes a publish. ErrNotFound is returned when it does not exist.
func (s *Store) Remove(ctx context.Context, id int64) error {
	res, err := s.execWithRetry(ctx, "DELETE FROM published_files WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("remove publish: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return nil
}
