// Package memory keeps books in a process-local map. It backs local runs
// (STORAGE_DRIVER=memory) and HTTP tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/marcelsud/bookshelf-api/book"
)

type Repository struct {
	mu    sync.RWMutex
	books map[string]book.Book
	now   func() time.Time
}

func NewRepository() *Repository {
	return &Repository{
		books: make(map[string]book.Book),
		now:   time.Now,
	}
}

func (r *Repository) FindAll(ctx context.Context, f book.Filter) ([]book.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keyword := strings.ToLower(f.Keyword)
	books := []book.Book{}
	for _, b := range r.books {
		if keyword == "" || strings.Contains(strings.ToLower(b.Title), keyword) {
			books = append(books, b)
		}
	}
	sort.Slice(books, func(i, j int) bool { return books[i].ID < books[j].ID })

	if f.PerPage <= 0 {
		return books, nil
	}
	start := f.Skip()
	if start >= len(books) {
		return []book.Book{}, nil
	}
	end := len(books)
	if f.PerPage < end-start {
		end = start + f.PerPage
	}
	return books[start:end], nil
}

func (r *Repository) FindByID(ctx context.Context, id string) (book.Book, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.books[id]
	return b, ok, nil
}

func (r *Repository) Insert(ctx context.Context, b book.Book) (book.Book, error) {
	if err := book.Validate(b); err != nil {
		return book.Book{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	b.ID = book.NewID()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = r.now().UTC()
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = b.CreatedAt
	}
	r.books[b.ID] = b
	return b, nil
}

func (r *Repository) UpdateByID(ctx context.Context, id string, p book.Patch) (book.Book, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.books[id]
	if !ok {
		return book.Book{}, false, nil
	}
	if p.IsEmpty() {
		return current, true, nil
	}

	merged := p.Apply(current)
	if err := book.Validate(merged); err != nil {
		return book.Book{}, false, err
	}
	merged.UpdatedAt = r.now().UTC()
	r.books[id] = merged
	return merged, true, nil
}

func (r *Repository) DeleteByID(ctx context.Context, id string) (book.Book, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.books[id]
	if ok {
		delete(r.books, id)
	}
	return b, ok, nil
}

// CountByCategory feeds the books.count gauge
func (r *Repository) CountByCategory(ctx context.Context) (map[string]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int64)
	for _, b := range r.books {
		counts[b.Category.String()]++
	}
	return counts, nil
}

func (r *Repository) Close(ctx context.Context) error {
	return nil
}
