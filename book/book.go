package book

import (
	"math"
	"time"
)

/* Book represents a book as the business sees it.
 * No storage or transport tags here: each adapter owns its own mapping.
 * Value semantics, it is data.
 */
type Book struct {
	ID          string
	User        string
	Title       string
	Description string
	Author      string
	Price       float64
	Category    Category
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateInput carries every field of a new book except the ones the store assigns.
type CreateInput struct {
	User        string
	Title       string
	Description string
	Author      string
	Price       float64
	Category    Category
}

/* Patch is a partial update. A nil field means "leave it as it is",
 * which is why pointers are used instead of zero values.
 */
type Patch struct {
	Title       *string
	Description *string
	Author      *string
	Price       *float64
	Category    *Category
}

// Apply returns b with the supplied fields replaced.
func (p Patch) Apply(b Book) Book {
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Description != nil {
		b.Description = *p.Description
	}
	if p.Author != nil {
		b.Author = *p.Author
	}
	if p.Price != nil {
		b.Price = *p.Price
	}
	if p.Category != nil {
		b.Category = *p.Category
	}
	return b
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Author == nil && p.Price == nil && p.Category == nil
}

// Filter narrows FindAll. Page is 1-based; PerPage 0 disables paging.
type Filter struct {
	Keyword string
	Page    int
	PerPage int
}

// Skip returns how many matching books precede the requested page.
func (f Filter) Skip() int {
	if f.PerPage <= 0 || f.Page <= 1 {
		return 0
	}
	if f.Page-1 > math.MaxInt/f.PerPage {
		return math.MaxInt
	}
	return f.PerPage * (f.Page - 1)
}
