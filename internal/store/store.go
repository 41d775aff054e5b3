package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/ultramarine/internal/batch"
	"github.com/jmylchreest/ultramarine/internal/colour"
)

// ErrNotFound is returned when no palette is stored for an ID.
var ErrNotFound = errors.New("palette not found")

// Status values stored alongside each palette.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

const upsertPalette = `
	INSERT INTO palettes (id, palette, status, error, colours, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		palette = excluded.palette,
		status = excluded.status,
		error = excluded.error,
		colours = excluded.colours,
		updated_at = excluded.updated_at
`

// Entry is one indexed image.
type Entry struct {
	ID string
	// Palette is nil for failed entries.
	Palette   *colour.Palette
	Status    string
	Error     string
	UpdatedAt time.Time
}

// Text returns the palette text, or batch.ErrorText for failed entries.
func (e Entry) Text() string {
	if e.Palette == nil {
		return batch.ErrorText
	}
	return e.Palette.Text()
}

// Match is a search hit.
type Match struct {
	Entry
	Distance float64
}

// Store is a SQLite-backed palette index. It is safe for concurrent use.
type Store struct {
	db     *sql.DB
	logger hclog.Logger
}

// Open opens (creating if needed) the palette index at path and brings its
// schema up to date.
func Open(path string, logger hclog.Logger) (*Store, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	database, err := openDB(path)
	if err != nil {
		return nil, err
	}
	if err := runMigrations(database); err != nil {
		database.Close()
		return nil, err
	}

	logger.Debug("opened palette index", "path", path)
	return &Store{db: database, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put inserts or replaces an entry.
func (s *Store) Put(ctx context.Context, e Entry) error {
	if e.ID == "" {
		return fmt.Errorf("entry ID cannot be empty")
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = time.Now()
	}

	status, text, colours := StatusOK, "", 0
	if e.Palette == nil {
		status = StatusError
	} else {
		text, colours = e.Palette.Text(), e.Palette.Len()
	}

	_, err := s.db.ExecContext(ctx, upsertPalette, e.ID, text, status, e.Error, colours, e.UpdatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to store palette for %s: %w", e.ID, err)
	}
	return nil
}

// PutResults stores every batch result in a single transaction.
func (s *Store) PutResults(ctx context.Context, results []batch.Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, upsertPalette)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, r := range results {
		status, text, errText, colours := StatusOK, "", "", 0
		if r.OK() {
			text, colours = r.Palette.Text(), r.Palette.Len()
		} else {
			status = StatusError
			if r.Err != nil {
				errText = r.Err.Error()
			}
		}
		if _, err := stmt.ExecContext(ctx, r.ID, text, status, errText, colours, now); err != nil {
			return fmt.Errorf("failed to store palette for %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit palettes: %w", err)
	}
	s.logger.Debug("stored batch results", "count", len(results))
	return nil
}

// Get returns the entry for id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (Entry, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, palette, status, error, updated_at FROM palettes WHERE id = ?", id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e, err
}

// List returns all entries ordered by ID.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, palette, status, error, updated_at FROM palettes ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list palettes: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list palettes: %w", err)
	}
	return entries, nil
}

// Delete removes the entry for id. Deleting a missing entry is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM palettes WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete palette for %s: %w", id, err)
	}
	return nil
}

// Search ranks successful entries by colour.PaletteDistance to query and
// returns at most limit matches, nearest first. Ties are ordered by ID.
// A limit <= 0 returns every match.
func (s *Store) Search(ctx context.Context, query *colour.Palette, limit int) ([]Match, error) {
	if query == nil || query.Len() == 0 {
		return nil, fmt.Errorf("search palette cannot be empty")
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, palette, status, error, updated_at FROM palettes WHERE status = ? ORDER BY id", StatusOK)
	if err != nil {
		return nil, fmt.Errorf("failed to query palettes: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		if e.Palette == nil {
			continue
		}
		matches = append(matches, Match{
			Entry:    e,
			Distance: colour.PaletteDistance(query.Centroids, e.Palette.Centroids),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query palettes: %w", err)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var (
		e         Entry
		text      string
		updatedAt string
	)
	if err := row.Scan(&e.ID, &text, &e.Status, &e.Error, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, err
		}
		return Entry{}, fmt.Errorf("failed to read palette row: %w", err)
	}

	if ts, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		e.UpdatedAt = ts
	}
	if e.Status == StatusOK && text != "" {
		p, err := colour.ParsePaletteText(text)
		if err != nil {
			return Entry{}, fmt.Errorf("corrupt palette for %s: %w", e.ID, err)
		}
		e.Palette = p
	}
	return e, nil
}
