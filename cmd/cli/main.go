package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/marcelsud/bookshelf-api/book"
	"github.com/marcelsud/bookshelf-api/config"
	"github.com/marcelsud/bookshelf-api/internal/storage"
)

/* cli walks one book through its whole lifecycle against the configured
 * store: create, list, get, update, delete, then get again.
 * Usage: go run ./cmd/cli [-user <id>]
 */

func main() {
	userID := flag.String("user", "654001ee5baea9d8f3e2f47d", "owner of the book created by the walkthrough")
	flag.Parse()

	if err := run(*userID); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(userID string) error {
	cfg, err := config.GetConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	store, err := storage.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close(ctx)
	s := book.NewService(store)

	created, err := s.Create(ctx, book.CreateInput{
		User:        userID,
		Title:       "Neuromancer",
		Description: "The sky above the port was the color of television",
		Author:      "William Gibson",
		Price:       12.5,
		Category:    book.Fiction,
	})
	if err != nil {
		return err
	}
	fmt.Printf("created  %s %q\n", created.ID, created.Title)

	all, err := s.List(ctx, book.Filter{Keyword: "neuromancer"})
	if err != nil {
		return err
	}
	fmt.Printf("listed   %d book(s) matching \"neuromancer\"\n", len(all))

	got, err := s.Get(ctx, created.ID)
	if err != nil {
		return err
	}
	fmt.Printf("got      %s by %s, %s, %.2f\n", got.Title, got.Author, got.Category, got.Price)

	title := "Count Zero"
	updated, found, err := s.Update(ctx, created.ID, book.Patch{Title: &title})
	if err != nil {
		return err
	}
	fmt.Printf("updated  found=%t title=%q\n", found, updated.Title)

	if err := s.Delete(ctx, created.ID); err != nil {
		return err
	}
	fmt.Printf("deleted  %s\n", created.ID)

	_, err = s.Get(ctx, created.ID)
	fmt.Printf("get again: %v\n", err)
	return nil
}
