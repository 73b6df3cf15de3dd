package seed

import (
	"context"
	"fmt"
	"os"

	"github.com/marcelsud/bookshelf-api/book"
	"gopkg.in/yaml.v3"
)

/* Loader reads a YAML catalogue of books to preload a store.
 *
 *   books:
 *     - title: Dune
 *       author: Frank Herbert
 *       price: 19.99
 *       category: FICTION
 */

// File represents the structure of a seed file
type File struct {
	Books []Entry `yaml:"books"`
}

// Entry represents a single book in the YAML file
type Entry struct {
	Title       string  `yaml:"title"`
	Description string  `yaml:"description"`
	Author      string  `yaml:"author"`
	Price       float64 `yaml:"price"`
	Category    string  `yaml:"category"`
}

type Loader struct {
	books []book.CreateInput
}

func NewLoader() *Loader {
	return &Loader{}
}

// Load reads and validates the seed file at filePath
func (l *Loader) Load(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("reading seed file: %w", err)
	}
	return l.Parse(data)
}

// Parse validates every entry before keeping any of them
func (l *Loader) Parse(data []byte) error {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parsing seed YAML: %w", err)
	}

	books := make([]book.CreateInput, 0, len(f.Books))
	for i, e := range f.Books {
		in := book.CreateInput{
			Title:       e.Title,
			Description: e.Description,
			Author:      e.Author,
			Price:       e.Price,
			Category:    book.NewCategory(e.Category),
		}
		if err := book.Validate(book.Book{
			Title:       in.Title,
			Description: in.Description,
			Author:      in.Author,
			Price:       in.Price,
			Category:    in.Category,
		}); err != nil {
			return fmt.Errorf("validating entry %d (%q): %w", i+1, e.Title, err)
		}
		books = append(books, in)
	}

	l.books = books
	return nil
}

// List returns the loaded books in file order
func (l *Loader) List() []book.CreateInput {
	return l.books
}

// Insert creates every loaded book owned by userID and returns the stored books
func (l *Loader) Insert(ctx context.Context, s book.UseCase, userID string) ([]book.Book, error) {
	created := make([]book.Book, 0, len(l.books))
	for _, in := range l.books {
		in.User = userID
		b, err := s.Create(ctx, in)
		if err != nil {
			return created, fmt.Errorf("creating %q: %w", in.Title, err)
		}
		created = append(created, b)
	}
	return created, nil
}
