package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/marcelsud/bookshelf-api/book"
	"github.com/redis/go-redis/v9"
)

/* Redis implementation of book.Repository
 * One hash per book (book:{id}) holds the document,
 * one set (books) indexes every id for listing.
 * Writes that depend on a read run under WATCH so a concurrent delete
 * can never leave a half written hash behind.
 */

const (
	hashPrefix   = "book"
	indexKey     = "books"
	maxTxRetries = 3
)

var errTxContention = errors.New("book changed concurrently, giving up")

type Repository struct {
	client *redis.Client
	now    func() time.Time
}

// NewRepository creates a new Redis repository
func NewRepository(addr, password string, db int) (*Repository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to Redis: %w", err)
	}

	return &Repository{
		client: client,
		now:    time.Now,
	}, nil
}

func hashKey(id string) string {
	return fmt.Sprintf("%s:%s", hashPrefix, id)
}

func toHash(b book.Book) map[string]interface{} {
	return map[string]interface{}{
		"id":          b.ID,
		"user":        b.User,
		"title":       b.Title,
		"description": b.Description,
		"author":      b.Author,
		"price":       strconv.FormatFloat(b.Price, 'f', -1, 64),
		"category":    b.Category.String(),
		"created_at":  b.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":  b.UpdatedAt.Format(time.RFC3339Nano),
	}
}

func fromHash(data map[string]string) (book.Book, error) {
	price, err := strconv.ParseFloat(data["price"], 64)
	if err != nil {
		return book.Book{}, fmt.Errorf("parsing price: %w", err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, data["created_at"])
	if err != nil {
		return book.Book{}, fmt.Errorf("parsing created_at: %w", err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, data["updated_at"])
	if err != nil {
		return book.Book{}, fmt.Errorf("parsing updated_at: %w", err)
	}

	return book.Book{
		ID:          data["id"],
		User:        data["user"],
		Title:       data["title"],
		Description: data["description"],
		Author:      data["author"],
		Price:       price,
		Category:    book.NewCategory(data["category"]),
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, nil
}

func matches(b book.Book, keyword string) bool {
	return keyword == "" || strings.Contains(strings.ToLower(b.Title), strings.ToLower(keyword))
}

// FindAll loads every indexed book and filters in memory
func (r *Repository) FindAll(ctx context.Context, f book.Filter) ([]book.Book, error) {
	ids, err := r.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("listing book ids: %w", err)
	}
	// ObjectID hex sorts by creation time
	sort.Strings(ids)

	pipe := r.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, hashKey(id))
	}
	if len(ids) > 0 {
		if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
			return nil, fmt.Errorf("executing pipeline: %w", err)
		}
	}

	books := []book.Book{}
	for _, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil || len(data) == 0 {
			// removed between SMEMBERS and HGETALL
			continue
		}
		b, err := fromHash(data)
		if err != nil {
			return nil, fmt.Errorf("decoding book: %w", err)
		}
		if matches(b, f.Keyword) {
			books = append(books, b)
		}
	}

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

// FindByID reads the book hash
func (r *Repository) FindByID(ctx context.Context, id string) (book.Book, bool, error) {
	data, err := r.client.HGetAll(ctx, hashKey(id)).Result()
	if err != nil {
		return book.Book{}, false, fmt.Errorf("getting book: %w", err)
	}
	if len(data) == 0 {
		return book.Book{}, false, nil
	}

	b, err := fromHash(data)
	if err != nil {
		return book.Book{}, false, fmt.Errorf("decoding book: %w", err)
	}
	return b, true, nil
}

// Insert stores the hash and indexes the id in one MULTI
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

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, hashKey(b.ID), toHash(b))
		pipe.SAdd(ctx, indexKey, b.ID)
		return nil
	})
	if err != nil {
		return book.Book{}, fmt.Errorf("storing book: %w", err)
	}

	return b, nil
}

// watch runs fn under WATCH on the book key, retrying when another client
// touched the key between the read and the EXEC.
func (r *Repository) watch(ctx context.Context, id string, fn func(tx *redis.Tx) error) error {
	for i := 0; i < maxTxRetries; i++ {
		err := r.client.Watch(ctx, fn, hashKey(id))
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return errTxContention
}

// UpdateByID merges p into the stored book and validates before writing
func (r *Repository) UpdateByID(ctx context.Context, id string, p book.Patch) (book.Book, bool, error) {
	var (
		updated book.Book
		found   bool
	)

	key := hashKey(id)
	err := r.watch(ctx, id, func(tx *redis.Tx) error {
		data, err := tx.HGetAll(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("getting book: %w", err)
		}
		if len(data) == 0 {
			found = false
			return nil
		}
		current, err := fromHash(data)
		if err != nil {
			return fmt.Errorf("decoding book: %w", err)
		}

		merged := p.Apply(current)
		if err := book.Validate(merged); err != nil {
			return err
		}
		merged.UpdatedAt = r.now().UTC()

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, toHash(merged))
			return nil
		})
		if err != nil {
			return err
		}
		updated, found = merged, true
		return nil
	})
	if err != nil {
		var verr *book.ValidationError
		if errors.As(err, &verr) {
			return book.Book{}, false, err
		}
		return book.Book{}, false, fmt.Errorf("updating book: %w", err)
	}

	return updated, found, nil
}

// DeleteByID removes the hash and its index entry, returning the old hash
func (r *Repository) DeleteByID(ctx context.Context, id string) (book.Book, bool, error) {
	var (
		deleted book.Book
		found   bool
	)

	key := hashKey(id)
	err := r.watch(ctx, id, func(tx *redis.Tx) error {
		data, err := tx.HGetAll(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("getting book: %w", err)
		}
		if len(data) == 0 {
			found = false
			return nil
		}
		current, err := fromHash(data)
		if err != nil {
			return fmt.Errorf("decoding book: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.SRem(ctx, indexKey, id)
			return nil
		})
		if err != nil {
			return err
		}
		deleted, found = current, true
		return nil
	})
	if err != nil {
		return book.Book{}, false, fmt.Errorf("deleting book: %w", err)
	}

	return deleted, found, nil
}

// CountByCategory reads the category field of every indexed book
func (r *Repository) CountByCategory(ctx context.Context) (map[string]int64, error) {
	ids, err := r.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("listing book ids: %w", err)
	}

	counts := make(map[string]int64)
	if len(ids) == 0 {
		return counts, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGet(ctx, hashKey(id), "category")
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("executing pipeline: %w", err)
	}

	for _, cmd := range cmds {
		category, err := cmd.Result()
		if err != nil {
			continue
		}
		counts[category]++
	}
	return counts, nil
}

// Close closes the Redis connection
func (r *Repository) Close(ctx context.Context) error {
	return r.client.Close()
}
