package book

import "context"

/* Small interfaces, composed below.
 *
 * The bool returned next to a Book is the explicit "absent" marker:
 * (Book{}, false, nil) means no such document, an error always means the
 * store itself failed. The two are never mixed.
 */

type Reader interface {
	FindAll(ctx context.Context, f Filter) ([]Book, error)
	FindByID(ctx context.Context, id string) (Book, bool, error)
}

type Writer interface {
	Insert(ctx context.Context, b Book) (Book, error)
	UpdateByID(ctx context.Context, id string, p Patch) (Book, bool, error)
	DeleteByID(ctx context.Context, id string) (Book, bool, error)
}

type Repository interface {
	Reader
	Writer
	Close(ctx context.Context) error
}
