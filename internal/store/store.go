// Package store handles SQLite persistence of imported dictionaries.
package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/verte-zerg/letterfit/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

var (
	// ErrNotFound is returned when a named dictionary does not exist.
	ErrNotFound = errors.New("dictionary not found")
	// ErrExists is returned when importing over an existing dictionary
	// without replace.
	ErrExists = errors.New("dictionary already exists")
)

// Store wraps SQLite access for dictionaries.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS dictionaries (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			source_path TEXT NOT NULL,
			word_count INTEGER NOT NULL,
			imported_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS dictionary_words (
			dictionary_id INTEGER NOT NULL,
			position INTEGER NOT NULL,
			word TEXT NOT NULL,
			PRIMARY KEY (dictionary_id, position)
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// ImportDictionary stores words under name, keeping their order. An
// existing dictionary with the same name is replaced only when replace is set.
func (s *Store) ImportDictionary(ctx context.Context, name, sourcePath string, words model.Dictionary, replace bool) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	var existing int64
	switch err = tx.QueryRowContext(ctx, `SELECT id FROM dictionaries WHERE name = ?`, name).Scan(&existing); {
	case errors.Is(err, sql.ErrNoRows):
		err = nil
	case err != nil:
		return err
	case !replace:
		err = ErrExists
		return err
	default:
		if err = deleteDictionary(ctx, tx, existing); err != nil {
			return err
		}
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO dictionaries (name, source_path, word_count, imported_at) VALUES (?, ?, ?, ?)`,
		name, sourcePath, len(words), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}

	if len(words) > 0 {
		var stmt *sql.Stmt
		stmt, err = tx.PrepareContext(ctx,
			`INSERT INTO dictionary_words (dictionary_id, position, word) VALUES (?, ?, ?)`)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for i, word := range words {
			if _, err = stmt.ExecContext(ctx, id, i, word); err != nil {
				return err
			}
		}
	}

	err = tx.Commit()
	return err
}

// LoadDictionary returns the words of a named dictionary in import order.
func (s *Store) LoadDictionary(ctx context.Context, name string) (model.Dictionary, error) {
	var id int64
	if err := s.db.QueryRowContext(ctx, `SELECT id FROM dictionaries WHERE name = ?`, name).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT word FROM dictionary_words WHERE dictionary_id = ? ORDER BY position ASC`, id)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var words model.Dictionary
	for rows.Next() {
		var word string
		if err := rows.Scan(&word); err != nil {
			return nil, err
		}
		words = append(words, word)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return words, nil
}

// ListDictionaries returns metadata for all imported dictionaries by name.
func (s *Store) ListDictionaries(ctx context.Context) ([]model.DictionaryInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, source_path, word_count, imported_at FROM dictionaries ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.DictionaryInfo
	for rows.Next() {
		var info model.DictionaryInfo
		var importedAt string
		if err := rows.Scan(&info.Name, &info.SourcePath, &info.Words, &importedAt); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, importedAt)
		if err != nil {
			return nil, err
		}
		info.ImportedAt = parsed
		result = append(result, info)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteDictionary removes a named dictionary and its words.
func (s *Store) DeleteDictionary(ctx context.Context, name string) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	var id int64
	if err = tx.QueryRowContext(ctx, `SELECT id FROM dictionaries WHERE name = ?`, name).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrNotFound
		}
		return err
	}
	if err = deleteDictionary(ctx, tx, id); err != nil {
		return err
	}
	err = tx.Commit()
	return err
}

func deleteDictionary(ctx context.Context, tx *sql.Tx, id int64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM dictionary_words WHERE dictionary_id = ?`, id); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `DELETE FROM dictionaries WHERE id = ?`, id)
	return err
}
