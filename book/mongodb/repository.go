package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/marcelsud/bookshelf-api/book"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

/* MongoDB implementation of book.Repository.
 * One document per book in a single collection. The adapter owns the
 * document shape; the domain type never sees bson tags.
 */

type document struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	User        string             `bson:"user,omitempty"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Author      string             `bson:"author"`
	Price       float64            `bson:"price"`
	Category    string             `bson:"category"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func toDocument(b book.Book) document {
	return document{
		User:        b.User,
		Title:       b.Title,
		Description: b.Description,
		Author:      b.Author,
		Price:       b.Price,
		Category:    b.Category.String(),
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

func (d document) toBook() book.Book {
	return book.Book{
		ID:          d.ID.Hex(),
		User:        d.User,
		Title:       d.Title,
		Description: d.Description,
		Author:      d.Author,
		Price:       d.Price,
		Category:    book.NewCategory(d.Category),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

type Repository struct {
	client *mongo.Client
	coll   *mongo.Collection
	now    func() time.Time
}

// NewRepository connects to uri and uses database.collection for books.
func NewRepository(ctx context.Context, uri, database, collection string) (*Repository, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}

	return &Repository{
		client: client,
		coll:   client.Database(database).Collection(collection),
		now:    time.Now,
	}, nil
}

// NewRepositoryFromCollection wraps an already configured collection.
func NewRepositoryFromCollection(coll *mongo.Collection) *Repository {
	return &Repository{coll: coll, now: time.Now}
}

func filterQuery(f book.Filter) bson.M {
	if f.Keyword == "" {
		return bson.M{}
	}
	return bson.M{"title": primitive.Regex{Pattern: regexp.QuoteMeta(f.Keyword), Options: "i"}}
}

// FindAll returns the books matching f
func (r *Repository) FindAll(ctx context.Context, f book.Filter) ([]book.Book, error) {
	opts := options.Find()
	if f.PerPage > 0 {
		opts.SetLimit(int64(f.PerPage)).SetSkip(int64(f.Skip()))
	}

	cursor, err := r.coll.Find(ctx, filterQuery(f), opts)
	if err != nil {
		return nil, fmt.Errorf("finding books: %w", err)
	}
	defer cursor.Close(ctx)

	books := []book.Book{}
	for cursor.Next(ctx) {
		var d document
		if err := cursor.Decode(&d); err != nil {
			return nil, fmt.Errorf("decoding book: %w", err)
		}
		books = append(books, d.toBook())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterating books: %w", err)
	}

	return books, nil
}

// FindByID looks a book up by its ObjectID
func (r *Repository) FindByID(ctx context.Context, id string) (book.Book, bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return book.Book{}, false, nil
	}

	var d document
	err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return book.Book{}, false, nil
	}
	if err != nil {
		return book.Book{}, false, fmt.Errorf("finding book: %w", err)
	}

	return d.toBook(), true, nil
}

// Insert validates and stores b, the ObjectID is generated here
func (r *Repository) Insert(ctx context.Context, b book.Book) (book.Book, error) {
	if err := book.Validate(b); err != nil {
		return book.Book{}, err
	}

	if b.CreatedAt.IsZero() {
		b.CreatedAt = r.now().UTC()
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = b.CreatedAt
	}

	d := toDocument(b)
	d.ID = primitive.NewObjectID()
	if _, err := r.coll.InsertOne(ctx, d); err != nil {
		return book.Book{}, fmt.Errorf("inserting book: %w", err)
	}

	return d.toBook(), nil
}

func setFields(p book.Patch) bson.M {
	set := bson.M{}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.Author != nil {
		set["author"] = *p.Author
	}
	if p.Price != nil {
		set["price"] = *p.Price
	}
	if p.Category != nil {
		set["category"] = p.Category.String()
	}
	return set
}

/* UpdateByID validates the merged book before writing anything.
 * Rules are per field, so a concurrent write to other fields between the
 * read and the $set cannot turn the stored document invalid.
 */
func (r *Repository) UpdateByID(ctx context.Context, id string, p book.Patch) (book.Book, bool, error) {
	current, found, err := r.FindByID(ctx, id)
	if err != nil || !found {
		return book.Book{}, found, err
	}
	if p.IsEmpty() {
		return current, true, nil
	}

	if err := book.Validate(p.Apply(current)); err != nil {
		return book.Book{}, false, err
	}

	oid, _ := primitive.ObjectIDFromHex(id)
	set := setFields(p)
	set["updatedAt"] = r.now().UTC()

	var d document
	err = r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return book.Book{}, false, nil
	}
	if err != nil {
		return book.Book{}, false, fmt.Errorf("updating book: %w", err)
	}

	return d.toBook(), true, nil
}

// DeleteByID removes a book and returns what was stored
func (r *Repository) DeleteByID(ctx context.Context, id string) (book.Book, bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return book.Book{}, false, nil
	}

	var d document
	err = r.coll.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return book.Book{}, false, nil
	}
	if err != nil {
		return book.Book{}, false, fmt.Errorf("deleting book: %w", err)
	}

	return d.toBook(), true, nil
}

// CountByCategory groups the collection by category
func (r *Repository) CountByCategory(ctx context.Context) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$category"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("counting books: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Category string `bson:"_id"`
		Count    int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decoding counts: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Category] = row.Count
	}
	return counts, nil
}

// Close disconnects the client when the repository owns it
func (r *Repository) Close(ctx context.Context) error {
	if r.client != nil {
		return r.client.Disconnect(ctx)
	}
	return nil
}
