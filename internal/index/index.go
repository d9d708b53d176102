// Package index persists the symbols of the workspace's host documents in
// SQLite for workspace symbol search.
package index

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	_ "github.com/mattn/go-sqlite3"
	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

var log = commonlog.GetLogger("mosaic.index")

//go:embed schema.sql
var schemaSQL string

const schemaVersion = 1

// DefaultLimit caps the results of Search.
const DefaultLimit = 128

var (
	// ErrNotFound is returned when a requested file is not indexed.
	ErrNotFound = errors.New("record not found")

	// ErrClosed is returned when using a closed index.
	ErrClosed = errors.New("index is closed")
)

// File identifies an indexed host document.
type File struct {
	Path     string
	URI      string
	Modified time.Time
}

// Index is a symbol index backed by a SQLite database.
type Index struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at path, enables WAL mode and
// brings the schema to the current version.
func Open(path string) (*Index, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Index{db: db}, nil
}

func initSchema(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}
	if version == schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if version != 0 {
		log.Infof("index schema %d is outdated, rebuilding", version)
		for _, table := range []string{"symbols", "files"} {
			if _, err := tx.Exec("DROP TABLE IF EXISTS " + table); err != nil {
				return fmt.Errorf("failed to drop %s: %w", table, err)
			}
		}
	}
	if _, err := tx.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("failed to update schema version: %w", err)
	}
	return tx.Commit()
}

// Close closes the database.
func (ix *Index) Close() error {
	if ix.db == nil {
		return ErrClosed
	}
	err := ix.db.Close()
	ix.db = nil
	return err
}

// withTx is a helper function to execute a function within a transaction.
func (ix *Index) withTx(fn func(tx *sql.Tx) error) error {
	if ix.db == nil {
		return ErrClosed
	}
	tx, err := ix.db.Begin()
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Upsert replaces the symbols of a file.
func (ix *Index) Upsert(file File, symbols []protocol.SymbolInformation) error {
	return ix.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`
            INSERT INTO files (path, uri, last_modified) VALUES (?, ?, ?)
            ON CONFLICT(path) DO UPDATE SET uri = excluded.uri, last_modified = excluded.last_modified
        `, file.Path, file.URI, file.Modified.UnixNano()); err != nil {
			return err
		}

		if _, err := tx.Exec(`DELETE FROM symbols WHERE path = ?`, file.Path); err != nil {
			return err
		}

		stmt, err := tx.Prepare(`
            INSERT INTO symbols (path, name, kind, container, start_line, start_char, end_line, end_char)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        `)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, s := range symbols {
			container := ""
			if s.ContainerName != nil {
				container = *s.ContainerName
			}
			r := s.Location.Range
			if _, err := stmt.Exec(file.Path, s.Name, int(s.Kind), container,
				r.Start.Line, r.Start.Character, r.End.Line, r.End.Character); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes a file and its symbols.
func (ix *Index) Delete(path string) error {
	return ix.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM symbols WHERE path = ?`, path); err != nil {
			return err
		}
		_, err := tx.Exec(`DELETE FROM files WHERE path = ?`, path)
		return err
	})
}

// LastModified returns the modification time a file was indexed at.
func (ix *Index) LastModified(path string) (time.Time, error) {
	if ix.db == nil {
		return time.Time{}, ErrClosed
	}
	var ts int64
	err := ix.db.QueryRow(`SELECT last_modified FROM files WHERE path = ?`, path).Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(0, ts), nil
}

// Paths returns the indexed file paths.
func (ix *Index) Paths() ([]string, error) {
	if ix.db == nil {
		return nil, ErrClosed
	}
	rows, err := ix.db.Query(`SELECT path FROM files ORDER BY path`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, rows.Err()
}

// Search returns up to limit symbols whose name contains query as a case
// insensitive subsequence. An empty query matches every symbol.
func (ix *Index) Search(query string, limit int) ([]protocol.SymbolInformation, error) {
	if ix.db == nil {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	rows, err := ix.db.Query(`
        SELECT s.name, s.kind, s.container, s.start_line, s.start_char, s.end_line, s.end_char, f.uri
        FROM symbols s JOIN files f ON f.path = s.path
        WHERE s.name LIKE ? ESCAPE '\'
        ORDER BY length(s.name), s.name, f.uri, s.start_line, s.start_char
    `, likePattern(query))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	symbols := []protocol.SymbolInformation{}
	for rows.Next() && len(symbols) < limit {
		var (
			s         protocol.SymbolInformation
			kind      int
			container string
		)
		r := &s.Location.Range
		if err := rows.Scan(&s.Name, &kind, &container,
			&r.Start.Line, &r.Start.Character, &r.End.Line, &r.End.Character, &s.Location.URI); err != nil {
			return nil, err
		}
		if !isSubsequence(query, s.Name) {
			continue
		}
		s.Kind = protocol.SymbolKind(kind)
		if container != "" {
			s.ContainerName = &container
		}
		symbols = append(symbols, s)
	}
	return symbols, rows.Err()
}

// likePattern turns "abc" into "%a%b%c%". SQLite folds the case of ASCII
// letters only, so other queries match everything and are filtered by
// isSubsequence.
func likePattern(query string) string {
	for i := 0; i < len(query); i++ {
		if query[i] >= utf8.RuneSelf {
			return "%"
		}
	}
	var b strings.Builder
	b.WriteByte('%')
	for _, r := range query {
		if r == '%' || r == '_' || r == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
		b.WriteByte('%')
	}
	return b.String()
}

// isSubsequence reports whether the runes of query appear in order in s,
// ignoring case.
func isSubsequence(query, s string) bool {
	for _, q := range query {
		q = unicode.ToLower(q)
		found := false
		for len(s) > 0 {
			r, size := utf8.DecodeRuneInString(s)
			s = s[size:]
			if unicode.ToLower(r) == q {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
