package book

import (
	"context"
	"fmt"
	"time"
)

/* Service is the only layer that knows about invalid ids and not found.
 * Pointer semantics, it is an API and not data.
 */

type UseCase interface {
	List(ctx context.Context, f Filter) ([]Book, error)
	Create(ctx context.Context, in CreateInput) (Book, error)
	Get(ctx context.Context, id string) (Book, error)
	Update(ctx context.Context, id string, p Patch) (Book, bool, error)
	Delete(ctx context.Context, id string) error
}

type Service struct {
	Repo         Repository
	strictUpdate bool
	now          func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithStrictUpdate makes Update fail with ErrNotFound when the id matches nothing,
// the same way Get does. Without it an absent book is reported through the bool.
func WithStrictUpdate() Option {
	return func(s *Service) {
		s.strictUpdate = true
	}
}

// WithClock replaces time.Now for the timestamps set on create.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		Repo: repo,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) List(ctx context.Context, f Filter) ([]Book, error) {
	all, err := s.Repo.FindAll(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("finding books: %w", err)
	}
	return all, nil
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Book, error) {
	now := s.now().UTC()
	b := Book{
		User:        in.User,
		Title:       in.Title,
		Description: in.Description,
		Author:      in.Author,
		Price:       in.Price,
		Category:    in.Category,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	saved, err := s.Repo.Insert(ctx, b)
	if err != nil {
		return Book{}, fmt.Errorf("inserting book: %w", err)
	}
	return saved, nil
}

func (s *Service) Get(ctx context.Context, id string) (Book, error) {
	if !ValidID(id) {
		return Book{}, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	b, found, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return Book{}, fmt.Errorf("finding book %s: %w", id, err)
	}
	if !found {
		return Book{}, fmt.Errorf("%w with id %s", ErrNotFound, id)
	}
	return b, nil
}

func (s *Service) Update(ctx context.Context, id string, p Patch) (Book, bool, error) {
	if !ValidID(id) {
		return Book{}, false, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	b, found, err := s.Repo.UpdateByID(ctx, id, p)
	if err != nil {
		return Book{}, false, fmt.Errorf("updating book %s: %w", id, err)
	}
	if !found && s.strictUpdate {
		return Book{}, false, fmt.Errorf("%w with id %s", ErrNotFound, id)
	}
	return b, found, nil
}

// Delete removes a book. Deleting an id that does not exist is not an error.
func (s *Service) Delete(ctx context.Context, id string) error {
	if !ValidID(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	if _, _, err := s.Repo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("deleting book %s: %w", id, err)
	}
	return nil
}
