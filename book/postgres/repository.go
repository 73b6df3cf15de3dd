package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/marcelsud/bookshelf-api/book"
	_ "github.com/lib/pq" // PostgreSQL driver
)

/*
PostgreSQL implementation of book.Repository

The table mirrors the document shape: ids are ObjectID hex strings generated
by the application, category is stored by name. Updates lock the row for the
read-merge-validate-write cycle so concurrent writers serialize on it.
*/

const (
	columns = "id, user_id, title, description, author, price, category, created_at, updated_at"

	queryFindAll = `SELECT ` + columns + ` FROM books
		WHERE ($1 = '' OR title ILIKE '%' || $1 || '%' ESCAPE '\')
		ORDER BY created_at, id
		LIMIT $2 OFFSET $3`

	queryFindByID = `SELECT ` + columns + ` FROM books WHERE id = $1`

	queryLockByID = `SELECT ` + columns + ` FROM books WHERE id = $1 FOR UPDATE`

	queryInsert = `INSERT INTO books (` + columns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	queryUpdate = `UPDATE books
		SET title = $2, description = $3, author = $4, price = $5, category = $6, updated_at = $7
		WHERE id = $1`

	queryDelete = `DELETE FROM books WHERE id = $1 RETURNING ` + columns

	queryCountByCategory = `SELECT category, COUNT(*) FROM books GROUP BY category`

	queryCreateTable = `
		CREATE TABLE IF NOT EXISTS books (
			id CHAR(24) PRIMARY KEY,
			user_id TEXT NOT NULL DEFAULT '',
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			author TEXT NOT NULL,
			price DOUBLE PRECISION NOT NULL CHECK (price >= 0),
			category TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)
	`
)

type Repository struct {
	DB  *sql.DB
	now func() time.Time
}

// NewRepository opens a pool with the default settings (25, 5, 5 min)
func NewRepository(connectionString string) (*Repository, error) {
	return NewRepositoryWithPoolConfig(connectionString, 25, 5, 5)
}

// NewRepositoryWithPoolConfig opens a pool with custom limits.
// maxOpenConns: maximum simultaneous connections (0 = unlimited)
// maxIdleConns: idle connections kept in the pool
// maxLifeMinutes: how long a connection may be reused
func NewRepositoryWithPoolConfig(connectionString string, maxOpenConns, maxIdleConns, maxLifeMinutes int) (*Repository, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}
	if maxIdleConns > 0 {
		db.SetMaxIdleConns(maxIdleConns)
	}
	if maxLifeMinutes > 0 {
		db.SetConnMaxLifetime(time.Duration(maxLifeMinutes) * time.Minute)
	}

	return NewRepositoryFromDB(db), nil
}

// NewRepositoryFromDB wraps an already opened pool
func NewRepositoryFromDB(db *sql.DB) *Repository {
	return &Repository{
		DB:  db,
		now: time.Now,
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBook(s scanner) (book.Book, error) {
	var (
		b        book.Book
		category string
	)
	err := s.Scan(
		&b.ID,
		&b.User,
		&b.Title,
		&b.Description,
		&b.Author,
		&b.Price,
		&category,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return book.Book{}, err
	}
	b.Category = book.NewCategory(category)
	b.CreatedAt = b.CreatedAt.UTC()
	b.UpdatedAt = b.UpdatedAt.UTC()
	return b, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// FindAll lists books whose title contains the keyword, oldest first
func (r *Repository) FindAll(ctx context.Context, f book.Filter) ([]book.Book, error) {
	var limit sql.NullInt64
	if f.PerPage > 0 {
		limit = sql.NullInt64{Int64: int64(f.PerPage), Valid: true}
	}

	rows, err := r.DB.QueryContext(ctx, queryFindAll, likeEscaper.Replace(f.Keyword), limit, f.Skip())
	if err != nil {
		return nil, fmt.Errorf("selecting books: %w", err)
	}
	defer rows.Close()

	books := []book.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning book: %w", err)
		}
		books = append(books, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating books: %w", err)
	}

	return books, nil
}

// FindByID returns the book or false when no row matches
func (r *Repository) FindByID(ctx context.Context, id string) (book.Book, bool, error) {
	b, err := scanBook(r.DB.QueryRowContext(ctx, queryFindByID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return book.Book{}, false, nil
	}
	if err != nil {
		return book.Book{}, false, fmt.Errorf("selecting book: %w", err)
	}
	return b, true, nil
}

// Insert validates and stores a new book under a fresh id
func (r *Repository) Insert(ctx context.Context, b book.Book) (book.Book, error) {
	if err := book.Validate(b); err != nil {
		return book.Book{}, err
	}

	b.ID = book.NewID()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = r.now().UTC()
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = b.CreatedAt
	}

	_, err := r.DB.ExecContext(ctx, queryInsert,
		b.ID,
		b.User,
		b.Title,
		b.Description,
		b.Author,
		b.Price,
		b.Category.String(),
		b.CreatedAt,
		b.UpdatedAt,
	)
	if err != nil {
		return book.Book{}, fmt.Errorf("inserting book: %w", err)
	}

	return b, nil
}

// UpdateByID locks the row, merges the patch and writes the validated result
func (r *Repository) UpdateByID(ctx context.Context, id string, p book.Patch) (book.Book, bool, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return book.Book{}, false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	current, err := scanBook(tx.QueryRowContext(ctx, queryLockByID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return book.Book{}, false, nil
	}
	if err != nil {
		return book.Book{}, false, fmt.Errorf("locking book: %w", err)
	}

	merged := p.Apply(current)
	if err := book.Validate(merged); err != nil {
		return book.Book{}, false, err
	}
	merged.UpdatedAt = r.now().UTC()

	_, err = tx.ExecContext(ctx, queryUpdate,
		merged.ID,
		merged.Title,
		merged.Description,
		merged.Author,
		merged.Price,
		merged.Category.String(),
		merged.UpdatedAt,
	)
	if err != nil {
		return book.Book{}, false, fmt.Errorf("updating book: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return book.Book{}, false, fmt.Errorf("committing transaction: %w", err)
	}

	return merged, true, nil
}

// DeleteByID removes the row and returns it as it was
func (r *Repository) DeleteByID(ctx context.Context, id string) (book.Book, bool, error) {
	b, err := scanBook(r.DB.QueryRowContext(ctx, queryDelete, id))
	if errors.Is(err, sql.ErrNoRows) {
		return book.Book{}, false, nil
	}
	if err != nil {
		return book.Book{}, false, fmt.Errorf("deleting book: %w", err)
	}
	return b, true, nil
}

// CountByCategory groups the stored books by category name
func (r *Repository) CountByCategory(ctx context.Context) (map[string]int64, error) {
	rows, err := r.DB.QueryContext(ctx, queryCountByCategory)
	if err != nil {
		return nil, fmt.Errorf("counting books: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var (
			category string
			n        int64
		)
		if err := rows.Scan(&category, &n); err != nil {
			return nil, fmt.Errorf("scanning count: %w", err)
		}
		counts[category] = n
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating counts: %w", err)
	}

	return counts, nil
}

// Close closes the pool
func (r *Repository) Close(ctx context.Context) error {
	if r.DB != nil {
		return r.DB.Close()
	}
	return nil
}

// CreateTable creates the books table when missing
func (r *Repository) CreateTable(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, queryCreateTable); err != nil {
		return fmt.Errorf("creating table: %w", err)
	}
	return nil
}
