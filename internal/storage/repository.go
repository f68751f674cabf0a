package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"financy/internal/core"
	"financy/internal/persist"

	_ "modernc.org/sqlite"
)

const dateFormat = "2006-01-02"

// Repository is the sqlite persistence collaborator. It assigns entry
// ids and creation timestamps on write; callers never supply either.
type Repository struct {
	db *sql.DB
}

var (
	_ persist.EntryWriter  = (*Repository)(nil)
	_ persist.EntryDeleter = (*Repository)(nil)
	_ persist.EntryLister  = (*Repository)(nil)
	_ persist.EntryGetter  = (*Repository)(nil)
)

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Create implements persist.EntryWriter.
func (r *Repository) Create(ctx context.Context, e core.Entry) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}

	id := uuid.NewString()
	createdAt := time.Now().UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO entries (id, owner_id, kind, amount, category, entry_date, description, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, e.OwnerID, string(e.Kind), e.Amount.String(), e.Category,
		e.Date.Format(dateFormat), e.Description, createdAt.Format(time.RFC3339Nano))
	if err != nil {
		return "", fmt.Errorf("insert entry: %w", err)
	}

	slog.InfoContext(ctx, "Entry saved",
		"id", id,
		"owner_id", e.OwnerID,
		"kind", e.Kind,
		"amount", e.Amount.String(),
		"category", e.Category)

	return id, nil
}

// Delete implements persist.EntryDeleter. Deleting an id that does not
// exist returns persist.ErrNotFound.
func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return persist.ErrNotFound
	}

	slog.InfoContext(ctx, "Entry deleted", "id", id)
	return nil
}

// ListByOwner implements persist.EntryLister.
func (r *Repository) ListByOwner(ctx context.Context, ownerID string) ([]core.Entry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, kind, amount, category, entry_date, description, created_at
		 FROM entries WHERE owner_id = ?
		 ORDER BY entry_date DESC, created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []core.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

// Get implements persist.EntryGetter.
func (r *Repository) Get(ctx context.Context, id string) (core.Entry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, kind, amount, category, entry_date, description, created_at
		 FROM entries WHERE id = ?`, id)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Entry{}, persist.ErrNotFound
	}
	return e, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(s rowScanner) (core.Entry, error) {
	var (
		e                           core.Entry
		kind, amount, date, created string
	)
	if err := s.Scan(&e.ID, &e.OwnerID, &kind, &amount, &e.Category, &date, &e.Description, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Entry{}, err
		}
		return core.Entry{}, fmt.Errorf("scan entry: %w", err)
	}

	e.Kind = core.Kind(kind)

	amt, err := decimal.NewFromString(amount)
	if err != nil {
		return core.Entry{}, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	e.Amount = amt

	if e.Date, err = time.Parse(dateFormat, date); err != nil {
		return core.Entry{}, fmt.Errorf("parse entry date %q: %w", date, err)
	}
	if e.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return core.Entry{}, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	return e, nil
}
