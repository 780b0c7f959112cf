package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sifan077/shorty/internal/app/model"
)

var (
	// ErrNotFound signals that no mapping exists for the requested short code.
	ErrNotFound = errors.New("short url not found")
	// ErrUniqueViolation signals that the short code is already taken.
	ErrUniqueViolation = errors.New("short code already exists")
	// ErrStoreUnavailable wraps connectivity and query failures.
	ErrStoreUnavailable = errors.New("mapping store unavailable")
)

const (
	createTableSQL = `
		CREATE TABLE IF NOT EXISTS urls (
			id SERIAL PRIMARY KEY,
			long_url TEXT NOT NULL,
			short_code VARCHAR(10) UNIQUE NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`
	insertSQL    = `INSERT INTO urls (long_url, short_code) VALUES ($1, $2) RETURNING id, long_url, short_code, created_at`
	lookupSQL    = `SELECT long_url FROM urls WHERE short_code = $1`
	getSQL       = `SELECT id, long_url, short_code, created_at FROM urls WHERE short_code = $1`
	listCodesSQL = `SELECT short_code FROM urls`
)

// DB is the part of *pgxpool.Pool the repository uses. Every call checks a
// connection out of the pool for a single statement and returns it.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
}

// MappingRepository defines the data access contract for url mappings.
// There is deliberately no update or delete.
type MappingRepository interface {
	EnsureSchema(ctx context.Context) error
	Insert(ctx context.Context, longURL, shortCode string) (*model.URLMapping, error)
	Lookup(ctx context.Context, shortCode string) (string, error)
	Get(ctx context.Context, shortCode string) (*model.URLMapping, error)
	ForEachCode(ctx context.Context, fn func(code string) error) error
	Ping(ctx context.Context) error
}

type mappingRepository struct {
	db DB
}

// NewMappingRepository returns a pgx-backed MappingRepository.
func NewMappingRepository(db DB) MappingRepository {
	return &mappingRepository{db: db}
}

// EnsureSchema creates the urls table when missing. Concurrent callers can
// race on the catalog even with IF NOT EXISTS; losing that race is fine.
func (r *mappingRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, createTableSQL); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgerrcode.UniqueViolation, pgerrcode.DuplicateTable, pgerrcode.DuplicateObject:
				return nil
			}
		}
		return fmt.Errorf("%w: ensure schema: %w", ErrStoreUnavailable, err)
	}
	return nil
}

func (r *mappingRepository) Insert(ctx context.Context, longURL, shortCode string) (*model.URLMapping, error) {
	var m model.URLMapping
	err := r.db.QueryRow(ctx, insertSQL, longURL, shortCode).
		Scan(&m.ID, &m.LongURL, &m.ShortCode, &m.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, fmt.Errorf("%w: %s", ErrUniqueViolation, shortCode)
		}
		return nil, fmt.Errorf("%w: insert: %w", ErrStoreUnavailable, err)
	}
	return &m, nil
}

func (r *mappingRepository) Lookup(ctx context.Context, shortCode string) (string, error) {
	var longURL string
	if err := r.db.QueryRow(ctx, lookupSQL, shortCode).Scan(&longURL); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: lookup: %w", ErrStoreUnavailable, err)
	}
	return longURL, nil
}

func (r *mappingRepository) Get(ctx context.Context, shortCode string) (*model.URLMapping, error) {
	var m model.URLMapping
	err := r.db.QueryRow(ctx, getSQL, shortCode).
		Scan(&m.ID, &m.LongURL, &m.ShortCode, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: get: %w", ErrStoreUnavailable, err)
	}
	return &m, nil
}

func (r *mappingRepository) ForEachCode(ctx context.Context, fn func(code string) error) error {
	rows, err := r.db.Query(ctx, listCodesSQL)
	if err != nil {
		return fmt.Errorf("%w: list codes: %w", ErrStoreUnavailable, err)
	}

	var code string
	if _, err := pgx.ForEachRow(rows, []any{&code}, func() error {
		return fn(code)
	}); err != nil {
		return fmt.Errorf("list codes: %w", err)
	}
	return nil
}

func (r *mappingRepository) Ping(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}
